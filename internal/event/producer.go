package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/foodieexpress/storefront/internal/domain"
	"github.com/foodieexpress/storefront/internal/service"
	pkgkafka "github.com/foodieexpress/storefront/pkg/kafka"
	"github.com/foodieexpress/storefront/pkg/logger"
)

// Kafka topics for storefront events.
var (
	TopicCartUpdated = pkgkafka.Topic("cart", "updated")
	TopicCartCleared = pkgkafka.Topic("cart", "cleared")
	TopicOrderPlaced = pkgkafka.Topic("order", "placed")
)

// Aggregate types.
const (
	AggregateTypeCart  = "cart"
	AggregateTypeOrder = "order"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront"

const publishTimeout = 5 * time.Second

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	SessionID    string         `json:"session_id"`
	Op           string         `json:"op"`
	Version      int            `json:"version"`
	RestaurantID string         `json:"restaurant_id,omitempty"`
	Lines        []CartLineData `json:"lines"`
	ItemCount    int            `json:"item_count"`
	Subtotal     string         `json:"subtotal"`
	DeliveryFee  string         `json:"delivery_fee"`
	TaxAmount    string         `json:"tax_amount"`
	Discount     string         `json:"discount_amount"`
	GrandTotal   string         `json:"grand_total"`
}

// CartLineData is the line payload within cart events.
type CartLineData struct {
	MenuItemID     string   `json:"menu_item_id"`
	Name           string   `json:"name"`
	Price          string   `json:"price"`
	Quantity       int      `json:"quantity"`
	Customizations []string `json:"customizations"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	SessionID string `json:"session_id"`
	Version   int    `json:"version"`
}

// OrderPlacedData is the payload for an order.placed event.
type OrderPlacedData struct {
	SessionID    string `json:"session_id"`
	UserID       string `json:"user_id"`
	OrderID      string `json:"order_id"`
	OrderNumber  string `json:"order_number,omitempty"`
	RestaurantID string `json:"restaurant_id"`
	ItemCount    int    `json:"item_count"`
	TotalAmount  string `json:"total_amount"`
	Payment      string `json:"payment_method"`
}

// Publisher sends an event to a topic. *pkgkafka.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// HandleCartChange is a service.Listener. Visibility-only changes are not
// published. A settled order that leaves no lines counts as a clear.
// Failures are logged and swallowed.
func (p *Producer) HandleCartChange(ctx context.Context, change service.Change) {
	if !change.Op.AffectsContents() {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	var err error
	if change.Op == service.OpClear || (change.Op == service.OpSettleOrder && change.Cart.IsEmpty()) {
		err = p.PublishCartCleared(ctx, change.SessionID, change.Cart.Version)
	} else {
		err = p.PublishCartUpdated(ctx, change.SessionID, change.Op, change.Cart)
	}
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to publish cart event",
			slog.String("session_id", change.SessionID),
			slog.String("op", string(change.Op)),
			slog.String("error", err.Error()),
		)
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, sessionID string, op service.Op, cart *domain.Cart) error {
	lines := make([]CartLineData, len(cart.Lines))
	for i, line := range cart.Lines {
		lines[i] = CartLineData{
			MenuItemID:     line.MenuItem.ID,
			Name:           line.MenuItem.Name,
			Price:          line.MenuItem.Price.StringFixed(2),
			Quantity:       line.Quantity,
			Customizations: line.Customizations,
		}
	}

	data := CartUpdatedData{
		SessionID:    sessionID,
		Op:           string(op),
		Version:      cart.Version,
		RestaurantID: cart.RestaurantID,
		Lines:        lines,
		ItemCount:    cart.ItemCount,
		Subtotal:     cart.Subtotal.StringFixed(2),
		DeliveryFee:  cart.DeliveryFee.StringFixed(2),
		TaxAmount:    cart.TaxAmount.StringFixed(2),
		Discount:     cart.DiscountAmount.StringFixed(2),
		GrandTotal:   cart.GrandTotal.StringFixed(2),
	}

	return p.publish(ctx, TopicCartUpdated, sessionID, AggregateTypeCart, data)
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, sessionID string, version int) error {
	return p.publish(ctx, TopicCartCleared, sessionID, AggregateTypeCart, CartClearedData{
		SessionID: sessionID,
		Version:   version,
	})
}

// PublishOrderPlaced publishes an order.placed event keyed by session.
func (p *Producer) PublishOrderPlaced(ctx context.Context, data OrderPlacedData) error {
	return p.publish(ctx, TopicOrderPlaced, data.SessionID, AggregateTypeOrder, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	if id := logger.UserIDFromContext(ctx); id != "" {
		event.WithMetadata("user_id", id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}
