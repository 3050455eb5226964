package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/foodieexpress/storefront/internal/catalog"
	"github.com/foodieexpress/storefront/internal/domain"
	"github.com/foodieexpress/storefront/internal/service"
	apperrors "github.com/foodieexpress/storefront/pkg/errors"
	"github.com/foodieexpress/storefront/pkg/httputil"
	"github.com/foodieexpress/storefront/pkg/validator"
)

// MenuResolver looks up the current catalog entry for a menu item.
type MenuResolver interface {
	MenuItem(ctx context.Context, restaurantID, itemID string) (*catalog.MenuItem, error)
}

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	menu    MenuResolver
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler. When menu is non-nil, added
// items are priced from the catalog instead of the request body.
func NewCartHandler(svc *service.CartService, menu MenuResolver, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		menu:    menu,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding an item to the cart.
type AddItemRequest struct {
	MenuItemID     string          `json:"menu_item_id" validate:"required,max=64"`
	RestaurantID   string          `json:"restaurant_id" validate:"required,max=64"`
	RestaurantName string          `json:"restaurant_name" validate:"max=255"`
	Name           string          `json:"name" validate:"max=255"`
	Price          decimal.Decimal `json:"price" validate:"gte=0"`
	ImageURL       string          `json:"image_url"`
	Quantity       int             `json:"quantity" validate:"required,gte=1,lte=99"`
	Customizations []string        `json:"customizations" validate:"max=20,dive,max=200"`
}

// UpdateQuantityRequest is the JSON request body for updating a line's quantity.
type UpdateQuantityRequest struct {
	Quantity       int      `json:"quantity" validate:"lte=99"`
	Customizations []string `json:"customizations" validate:"max=20,dive,max=200"`
}

// SetAddressRequest is the JSON request body for setting the delivery address.
// A null address clears it.
type SetAddressRequest struct {
	Address *domain.Address `json:"address"`
}

// ApplyDiscountRequest is the JSON request body for applying a discount.
type ApplyDiscountRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gte=0"`
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCart(r.Context(), sessionIDFromRequest(r))
	h.respond(w, r, cart, err)
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	item := domain.MenuItem{
		ID:        req.MenuItemID,
		Name:      req.Name,
		Price:     req.Price,
		ImageURL:  req.ImageURL,
		Available: true,
	}
	if h.menu != nil {
		entry, err := h.menu.MenuItem(r.Context(), req.RestaurantID, req.MenuItemID)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		if !entry.IsAvailable {
			httputil.WriteError(w, r, apperrors.InvalidInput("menu item is not available"), h.logger)
			return
		}
		item = entry.ToDomain()
	}

	cart, err := h.service.AddItem(r.Context(), sessionIDFromRequest(r), service.AddItemInput{
		MenuItem:       item,
		Quantity:       req.Quantity,
		RestaurantID:   req.RestaurantID,
		RestaurantName: req.RestaurantName,
		Customizations: req.Customizations,
	})
	h.respond(w, r, cart, err)
}

// UpdateQuantity handles PUT /api/v1/cart/items/{menuItemId}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.UpdateQuantity(r.Context(), sessionIDFromRequest(r),
		chi.URLParam(r, "menuItemId"), req.Quantity, req.Customizations)
	h.respond(w, r, cart, err)
}

// RemoveItem handles DELETE /api/v1/cart/items/{menuItemId}. The line's
// customizations are passed as repeated ?customization= query parameters.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	customizations := r.URL.Query()["customization"]

	cart, err := h.service.RemoveItem(r.Context(), sessionIDFromRequest(r),
		chi.URLParam(r, "menuItemId"), customizations)
	h.respond(w, r, cart, err)
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.ClearCart(r.Context(), sessionIDFromRequest(r))
	h.respond(w, r, cart, err)
}

// SetAddress handles PUT /api/v1/cart/address
func (h *CartHandler) SetAddress(w http.ResponseWriter, r *http.Request) {
	var req SetAddressRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.SetDeliveryAddress(r.Context(), sessionIDFromRequest(r), req.Address)
	h.respond(w, r, cart, err)
}

// ApplyDiscount handles PUT /api/v1/cart/discount
func (h *CartHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	var req ApplyDiscountRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.ApplyDiscount(r.Context(), sessionIDFromRequest(r), req.Amount)
	h.respond(w, r, cart, err)
}

// Toggle handles POST /api/v1/cart/toggle
func (h *CartHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.ToggleOpen(r.Context(), sessionIDFromRequest(r))
	h.respond(w, r, cart, err)
}

// Open handles POST /api/v1/cart/open
func (h *CartHandler) Open(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.Open(r.Context(), sessionIDFromRequest(r))
	h.respond(w, r, cart, err)
}

// Close handles POST /api/v1/cart/close
func (h *CartHandler) Close(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.Close(r.Context(), sessionIDFromRequest(r))
	h.respond(w, r, cart, err)
}

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, cart *domain.Cart, err error) {
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, cart)
}
