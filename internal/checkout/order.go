package checkout

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foodieexpress/storefront/internal/domain"
)

// OrderItemRequest is one line of the backend's order-creation body.
type OrderItemRequest struct {
	MenuItemID     string      `json:"menuItemId"`
	Quantity       int         `json:"quantity"`
	Customizations []string    `json:"customizations"`
	Price          json.Number `json:"price"`
}

// OrderRequest is the body of POST /api/orders. Amounts are sent as exact
// JSON numbers.
type OrderRequest struct {
	OrderItems         []OrderItemRequest `json:"orderItems"`
	DeliveryAddress    string             `json:"deliveryAddress"`
	DeliveryCity       string             `json:"deliveryCity"`
	DeliveryState      string             `json:"deliveryState"`
	DeliveryPostalCode string             `json:"deliveryPostalCode"`
	PaymentMethod      PaymentMethod      `json:"paymentMethod"`
	TotalAmount        json.Number        `json:"totalAmount"`
	Subtotal           json.Number        `json:"subtotal"`
	DeliveryFee        json.Number        `json:"deliveryFee"`
	TaxAmount          json.Number        `json:"taxAmount"`
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// BuildOrderRequest translates a cart snapshot, delivery address and payment
// method into the backend's order-creation body.
func BuildOrderRequest(cart *domain.Cart, addr domain.Address, method PaymentMethod) OrderRequest {
	items := make([]OrderItemRequest, len(cart.Lines))
	for i, line := range cart.Lines {
		customizations := line.Customizations
		if customizations == nil {
			customizations = []string{}
		}
		items[i] = OrderItemRequest{
			MenuItemID:     line.MenuItem.ID,
			Quantity:       line.Quantity,
			Customizations: customizations,
			Price:          number(line.MenuItem.Price),
		}
	}

	return OrderRequest{
		OrderItems:         items,
		DeliveryAddress:    addr.Format(),
		DeliveryCity:       addr.City,
		DeliveryState:      addr.State,
		DeliveryPostalCode: addr.ZipCode,
		PaymentMethod:      method,
		TotalAmount:        number(cart.GrandTotal),
		Subtotal:           number(cart.Subtotal),
		DeliveryFee:        number(cart.DeliveryFee),
		TaxAmount:          number(cart.TaxAmount),
	}
}

// Order is an order as returned to storefront clients.
type Order struct {
	ID                    string          `json:"id"`
	OrderNumber           string          `json:"order_number,omitempty"`
	OrderDate             time.Time       `json:"order_date"`
	Status                string          `json:"status"`
	PaymentMethod         string          `json:"payment_method,omitempty"`
	PaymentStatus         string          `json:"payment_status,omitempty"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	TaxAmount             decimal.Decimal `json:"tax_amount"`
	DeliveryFee           decimal.Decimal `json:"delivery_fee"`
	DiscountAmount        decimal.Decimal `json:"discount_amount"`
	TotalAmount           decimal.Decimal `json:"total_amount"`
	DeliveryAddress       string          `json:"delivery_address,omitempty"`
	DeliveryCity          string          `json:"delivery_city,omitempty"`
	DeliveryState         string          `json:"delivery_state,omitempty"`
	DeliveryPostalCode    string          `json:"delivery_postal_code,omitempty"`
	EstimatedDeliveryTime *time.Time      `json:"estimated_delivery_time,omitempty"`
}

// backendOrder mirrors the backend's order JSON.
type backendOrder struct {
	ID                    json.Number     `json:"id"`
	OrderNumber           string          `json:"orderNumber"`
	OrderDate             LocalTime       `json:"orderDate"`
	Status                string          `json:"status"`
	PaymentMethod         string          `json:"paymentMethod"`
	PaymentStatus         string          `json:"paymentStatus"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	TaxAmount             decimal.Decimal `json:"taxAmount"`
	DeliveryFee           decimal.Decimal `json:"deliveryFee"`
	DiscountAmount        decimal.Decimal `json:"discountAmount"`
	TotalAmount           decimal.Decimal `json:"totalAmount"`
	DeliveryAddressLine1  string          `json:"deliveryAddressLine1"`
	DeliveryCity          string          `json:"deliveryCity"`
	DeliveryState         string          `json:"deliveryState"`
	DeliveryPostalCode    string          `json:"deliveryPostalCode"`
	EstimatedDeliveryTime *LocalTime      `json:"estimatedDeliveryTime"`
}

func (b backendOrder) toOrder() Order {
	o := Order{
		ID:                 b.ID.String(),
		OrderNumber:        b.OrderNumber,
		OrderDate:          b.OrderDate.Time,
		Status:             b.Status,
		PaymentMethod:      b.PaymentMethod,
		PaymentStatus:      b.PaymentStatus,
		Subtotal:           b.Subtotal,
		TaxAmount:          b.TaxAmount,
		DeliveryFee:        b.DeliveryFee,
		DiscountAmount:     b.DiscountAmount,
		TotalAmount:        b.TotalAmount,
		DeliveryAddress:    b.DeliveryAddressLine1,
		DeliveryCity:       b.DeliveryCity,
		DeliveryState:      b.DeliveryState,
		DeliveryPostalCode: b.DeliveryPostalCode,
	}
	if b.EstimatedDeliveryTime != nil && !b.EstimatedDeliveryTime.IsZero() {
		t := b.EstimatedDeliveryTime.Time
		o.EstimatedDeliveryTime = &t
	}
	return o
}
