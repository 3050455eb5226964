package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foodieexpress/storefront/internal/catalog"
	"github.com/foodieexpress/storefront/pkg/httputil"
	"github.com/foodieexpress/storefront/pkg/pagination"
)

// CatalogHandler serves restaurant and menu reads.
type CatalogHandler struct {
	service *catalog.Service
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *catalog.Service, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		logger:  logger,
	}
}

// MenuResponse is the body of GET /api/v1/restaurants/{id}/menu.
type MenuResponse struct {
	RestaurantID string             `json:"restaurant_id"`
	Categories   []string           `json:"categories"`
	Items        []catalog.MenuItem `json:"items"`
}

// ListRestaurants handles GET /api/v1/restaurants?q=&page=&per_page=
func (h *CatalogHandler) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.service.Restaurants(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, pagination.Slice(restaurants, pagination.FromRequest(r)))
}

// GetRestaurant handles GET /api/v1/restaurants/{id}
func (h *CatalogHandler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	restaurant, err := h.service.Restaurant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, restaurant)
}

// GetMenu handles GET /api/v1/restaurants/{id}/menu
func (h *CatalogHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	items, err := h.service.Menu(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if items == nil {
		items = []catalog.MenuItem{}
	}

	httputil.WriteData(w, http.StatusOK, MenuResponse{
		RestaurantID: id,
		Categories:   catalog.Categories(items),
		Items:        items,
	})
}
