package catalog

import (
	"context"
	"log/slog"
	"strings"

	apperrors "github.com/foodieexpress/storefront/pkg/errors"
)

// Backend is the catalog source. *Client implements it.
type Backend interface {
	ListRestaurants(ctx context.Context) ([]Restaurant, error)
	SearchRestaurants(ctx context.Context, query string) ([]Restaurant, error)
	GetRestaurant(ctx context.Context, id string) (*Restaurant, error)
	GetMenu(ctx context.Context, restaurantID string) ([]MenuItem, error)
}

// Service serves catalog reads, caching menus when a cache is configured.
type Service struct {
	backend Backend
	cache   *MenuCache
	logger  *slog.Logger
}

// NewService creates a catalog service. cache may be nil.
func NewService(backend Backend, cache *MenuCache, logger *slog.Logger) *Service {
	return &Service{backend: backend, cache: cache, logger: logger}
}

// Restaurants lists restaurants, or searches them when query is non-empty.
func (s *Service) Restaurants(ctx context.Context, query string) ([]Restaurant, error) {
	if q := strings.TrimSpace(query); q != "" {
		return s.backend.SearchRestaurants(ctx, q)
	}
	return s.backend.ListRestaurants(ctx)
}

// Restaurant returns a single restaurant.
func (s *Service) Restaurant(ctx context.Context, id string) (*Restaurant, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("restaurant id is required")
	}
	return s.backend.GetRestaurant(ctx, id)
}

// Menu returns a restaurant's menu. Cache failures are logged and the
// backend is used instead.
func (s *Service) Menu(ctx context.Context, restaurantID string) ([]MenuItem, error) {
	if restaurantID == "" {
		return nil, apperrors.InvalidInput("restaurant id is required")
	}

	if s.cache != nil {
		items, ok, err := s.cache.Get(ctx, restaurantID)
		if err != nil {
			s.logger.WarnContext(ctx, "menu cache read failed",
				slog.String("restaurant_id", restaurantID),
				slog.String("error", err.Error()),
			)
		}
		if ok {
			return items, nil
		}
	}

	items, err := s.backend.GetMenu(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, restaurantID, items); err != nil {
			s.logger.WarnContext(ctx, "menu cache write failed",
				slog.String("restaurant_id", restaurantID),
				slog.String("error", err.Error()),
			)
		}
	}
	return items, nil
}

// MenuItem looks up one item on a restaurant's menu.
func (s *Service) MenuItem(ctx context.Context, restaurantID, itemID string) (*MenuItem, error) {
	items, err := s.Menu(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if string(items[i].ID) == itemID {
			return &items[i], nil
		}
	}
	return nil, apperrors.NotFound("menu item", itemID)
}
