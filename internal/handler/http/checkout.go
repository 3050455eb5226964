package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/foodieexpress/storefront/internal/checkout"
	"github.com/foodieexpress/storefront/pkg/httputil"
	"github.com/foodieexpress/storefront/pkg/middleware"
	"github.com/foodieexpress/storefront/pkg/pagination"
)

// CheckoutHandler handles order placement and order history.
type CheckoutHandler struct {
	service *checkout.Service
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *checkout.Service, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		logger:  logger,
	}
}

func caller(r *http.Request) checkout.Caller {
	ctx := r.Context()
	return checkout.Caller{
		SessionID: sessionIDFromRequest(r),
		UserID:    middleware.UserIDFromContext(ctx),
		Token:     middleware.BearerTokenFromContext(ctx),
	}
}

// PlaceOrder handles POST /api/v1/checkout
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	// Field validation happens in the checkout service, which knows whether
	// card details apply to the chosen payment method.
	var input checkout.PlaceOrderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httputil.WriteValidationError(w, fmt.Errorf("decode request body: %w", err))
		return
	}

	order, err := h.service.PlaceOrder(r.Context(), caller(r), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, order)
}

// ListOrders handles GET /api/v1/orders
func (h *CheckoutHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.OrderHistory(r.Context(), caller(r), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, history)
}
