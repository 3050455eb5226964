package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

const menuKeyPrefix = "menu:"

var menuCacheLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_menu_cache_lookups_total",
		Help: "Menu cache lookups by result (hit, miss, error)",
	},
	[]string{"result"},
)

// MenuCache stores restaurant menus in Redis.
type MenuCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMenuCache creates a menu cache whose entries expire after ttl.
func NewMenuCache(client *redis.Client, ttl time.Duration) *MenuCache {
	return &MenuCache{client: client, ttl: ttl}
}

// Get returns the cached menu. ok is false on a miss.
func (c *MenuCache) Get(ctx context.Context, restaurantID string) (items []MenuItem, ok bool, err error) {
	data, err := c.client.Get(ctx, menuKeyPrefix+restaurantID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			menuCacheLookups.WithLabelValues("miss").Inc()
			return nil, false, nil
		}
		menuCacheLookups.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("redis get menu: %w", err)
	}

	if err := json.Unmarshal(data, &items); err != nil {
		menuCacheLookups.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("unmarshal menu: %w", err)
	}
	menuCacheLookups.WithLabelValues("hit").Inc()
	return items, true, nil
}

// Set stores a menu.
func (c *MenuCache) Set(ctx context.Context, restaurantID string, items []MenuItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal menu: %w", err)
	}
	if err := c.client.Set(ctx, menuKeyPrefix+restaurantID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set menu: %w", err)
	}
	return nil
}
