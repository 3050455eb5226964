package checkout

import (
	"context"
	"log/slog"
	"time"

	"github.com/foodieexpress/storefront/internal/domain"
	"github.com/foodieexpress/storefront/internal/event"
	apperrors "github.com/foodieexpress/storefront/pkg/errors"
	"github.com/foodieexpress/storefront/pkg/pagination"
	"github.com/foodieexpress/storefront/pkg/validator"
)

// CartStore is the part of the cart service checkout needs.
type CartStore interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	SetDeliveryAddress(ctx context.Context, sessionID string, addr *domain.Address) (*domain.Cart, error)
	SettleOrder(ctx context.Context, sessionID string, ordered *domain.Cart) (*domain.Cart, error)
}

// OrderBackend creates and lists orders. *OrderClient implements it.
type OrderBackend interface {
	CreateOrder(ctx context.Context, token string, req OrderRequest) (*Order, error)
	ListUserOrders(ctx context.Context, token, userID string) ([]Order, error)
}

// OrderEvents publishes order lifecycle events.
type OrderEvents interface {
	PublishOrderPlaced(ctx context.Context, data event.OrderPlacedData) error
}

// PlaceOrderInput holds the checkout form.
type PlaceOrderInput struct {
	Address       domain.Address `json:"address"`
	PaymentMethod string         `json:"payment_method"`
	Card          *CardDetails   `json:"card,omitempty"`
}

// Caller identifies who is checking out.
type Caller struct {
	SessionID string
	UserID    string
	Token     string
}

// Service places orders from carts and reads order history.
type Service struct {
	carts   CartStore
	backend OrderBackend
	events  OrderEvents
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a checkout service. events may be nil.
func NewService(carts CartStore, backend OrderBackend, events OrderEvents, logger *slog.Logger) *Service {
	return &Service{
		carts:   carts,
		backend: backend,
		events:  events,
		logger:  logger,
		now:     time.Now,
	}
}

// PlaceOrder submits the caller's cart as an order. The checkout address is
// stored on the cart first so the delivery fee is priced in. Only when the
// backend accepts the order are the ordered lines taken out of the cart;
// anything added while the order was in flight stays.
func (s *Service) PlaceOrder(ctx context.Context, caller Caller, input PlaceOrderInput) (*Order, error) {
	if err := validator.Validate(input.Address); err != nil {
		return nil, err
	}
	method := ParsePaymentMethod(input.PaymentMethod)
	if method.RequiresCard() {
		if input.Card == nil {
			return nil, apperrors.InvalidInput("card details are required for this payment method")
		}
		if err := validator.Validate(input.Card); err != nil {
			return nil, err
		}
	}

	current, err := s.carts.GetCart(ctx, caller.SessionID)
	if err != nil {
		return nil, err
	}
	if current.IsEmpty() {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	addr := input.Address
	cart, err := s.carts.SetDeliveryAddress(ctx, caller.SessionID, &addr)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	req := BuildOrderRequest(cart, addr, method)
	order, err := s.backend.CreateOrder(ctx, caller.Token, req)
	if err != nil {
		s.logger.WarnContext(ctx, "order submission failed, cart kept",
			slog.String("session_id", caller.SessionID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if _, err := s.carts.SettleOrder(ctx, caller.SessionID, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to settle cart after order",
			slog.String("session_id", caller.SessionID),
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	if s.events != nil {
		data := event.OrderPlacedData{
			SessionID:    caller.SessionID,
			UserID:       caller.UserID,
			OrderID:      order.ID,
			OrderNumber:  order.OrderNumber,
			RestaurantID: cart.RestaurantID,
			ItemCount:    cart.ItemCount,
			TotalAmount:  cart.GrandTotal.StringFixed(2),
			Payment:      string(method),
		}
		if err := s.events.PublishOrderPlaced(ctx, data); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish order.placed event",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("session_id", caller.SessionID),
		slog.String("user_id", caller.UserID),
		slog.String("order_id", order.ID),
		slog.String("payment_method", string(method)),
		slog.String("total", cart.GrandTotal.StringFixed(2)),
	)

	return order, nil
}

// OrderHistory is the response for a user's order listing. Past orders are
// paginated; active orders are always returned in full.
type OrderHistory struct {
	Active []Order                   `json:"active"`
	Past   pagination.Result[Order] `json:"past"`
}

// OrderHistory fetches the caller's orders and splits them into active and
// past.
func (s *Service) OrderHistory(ctx context.Context, caller Caller, params pagination.Params) (*OrderHistory, error) {
	if caller.UserID == "" {
		return nil, apperrors.Unauthorized("user id is required")
	}

	orders, err := s.backend.ListUserOrders(ctx, caller.Token, caller.UserID)
	if err != nil {
		return nil, err
	}

	h := SplitOrders(orders, s.now())
	return &OrderHistory{
		Active: h.Active,
		Past:   pagination.Slice(h.Past, params),
	}, nil
}
