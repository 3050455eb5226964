package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/foodieexpress/storefront/pkg/errors"
	"github.com/foodieexpress/storefront/pkg/httpclient"
)

const catalogBackend = "catalog-backend"

// Client reads restaurants and menus from the backend.
type Client struct {
	http    httpclient.HTTPDoer
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a catalog client for the backend at baseURL.
func NewClient(doer httpclient.HTTPDoer, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		http:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// ListRestaurants returns every restaurant the backend lists.
func (c *Client) ListRestaurants(ctx context.Context) ([]Restaurant, error) {
	var raw []backendRestaurant
	if err := c.get(ctx, "/api/restaurants", &raw); err != nil {
		return nil, err
	}
	return toRestaurants(raw), nil
}

// SearchRestaurants returns restaurants matching query.
func (c *Client) SearchRestaurants(ctx context.Context, query string) ([]Restaurant, error) {
	var raw []backendRestaurant
	if err := c.get(ctx, "/api/restaurants/search?query="+url.QueryEscape(query), &raw); err != nil {
		return nil, err
	}
	return toRestaurants(raw), nil
}

// GetRestaurant returns a single restaurant.
func (c *Client) GetRestaurant(ctx context.Context, id string) (*Restaurant, error) {
	var raw backendRestaurant
	if err := c.get(ctx, "/api/restaurants/"+url.PathEscape(id), &raw); err != nil {
		return nil, err
	}
	r := raw.toRestaurant()
	return &r, nil
}

// GetMenu returns a restaurant's menu.
func (c *Client) GetMenu(ctx context.Context, restaurantID string) ([]MenuItem, error) {
	var raw []backendMenuItem
	if err := c.get(ctx, "/api/restaurants/"+url.PathEscape(restaurantID)+"/menu", &raw); err != nil {
		return nil, err
	}
	items := make([]MenuItem, len(raw))
	for i, b := range raw {
		items[i] = b.toMenuItem()
	}
	return items, nil
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		c.logger.ErrorContext(ctx, "catalog backend call failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return apperrors.ServiceUnavailable("catalog backend is unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, catalogBackend)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}
	return nil
}

func toRestaurants(raw []backendRestaurant) []Restaurant {
	out := make([]Restaurant, len(raw))
	for i, b := range raw {
		out[i] = b.toRestaurant()
	}
	return out
}
