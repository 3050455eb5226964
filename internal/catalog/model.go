package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/foodieexpress/storefront/internal/domain"
)

// ID is a backend identifier. The backend emits numeric ids; the storefront
// treats every id as an opaque string.
type ID string

// UnmarshalJSON accepts a JSON number or string.
func (id *ID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("catalog id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Restaurant is a restaurant as shown to storefront clients.
type Restaurant struct {
	ID                       ID              `json:"id"`
	Name                     string          `json:"name"`
	Description              string          `json:"description,omitempty"`
	CuisineType              string          `json:"cuisine_type,omitempty"`
	City                     string          `json:"city,omitempty"`
	AverageRating            float64         `json:"average_rating"`
	DeliveryFee              decimal.Decimal `json:"delivery_fee"`
	MinimumOrderAmount       decimal.Decimal `json:"minimum_order_amount"`
	EstimatedDeliveryMinutes int             `json:"estimated_delivery_minutes,omitempty"`
	IsOpen                   bool            `json:"is_open"`
	IsAcceptingOrders        bool            `json:"is_accepting_orders"`
	LogoURL                  string          `json:"logo_url,omitempty"`
	CoverImageURL            string          `json:"cover_image_url,omitempty"`
}

// MenuItem is a menu entry as shown to storefront clients.
type MenuItem struct {
	ID            ID              `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Category      string          `json:"category,omitempty"`
	Type          string          `json:"type,omitempty"`
	SpiceLevel    string          `json:"spice_level,omitempty"`
	IsAvailable   bool            `json:"is_available"`
	IsRecommended bool            `json:"is_recommended"`
	ImageURL      string          `json:"image_url,omitempty"`
}

// ToDomain snapshots the menu entry into the shape the cart stores.
func (m MenuItem) ToDomain() domain.MenuItem {
	return domain.MenuItem{
		ID:        string(m.ID),
		Name:      m.Name,
		Price:     m.Price,
		ImageURL:  m.ImageURL,
		Available: m.IsAvailable,
	}
}

// Categories returns the distinct menu categories in first-seen order.
func Categories(items []MenuItem) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, it := range items {
		if it.Category == "" {
			continue
		}
		if _, ok := seen[it.Category]; ok {
			continue
		}
		seen[it.Category] = struct{}{}
		out = append(out, it.Category)
	}
	return out
}

// backendRestaurant mirrors the backend's camelCase restaurant payload.
type backendRestaurant struct {
	ID                           ID              `json:"id"`
	Name                         string          `json:"name"`
	Description                  string          `json:"description"`
	CuisineType                  string          `json:"cuisineType"`
	City                         string          `json:"city"`
	AverageRating                float64         `json:"averageRating"`
	DeliveryFee                  decimal.Decimal `json:"deliveryFee"`
	MinimumOrderAmount           decimal.Decimal `json:"minimumOrderAmount"`
	EstimatedDeliveryTimeMinutes int             `json:"estimatedDeliveryTimeMinutes"`
	IsOpen                       *bool           `json:"isOpen"`
	IsAcceptingOrders            *bool           `json:"isAcceptingOrders"`
	LogoURL                      string          `json:"logoUrl"`
	CoverImageURL                string          `json:"coverImageUrl"`
}

func (b backendRestaurant) toRestaurant() Restaurant {
	return Restaurant{
		ID:                       b.ID,
		Name:                     b.Name,
		Description:              b.Description,
		CuisineType:              b.CuisineType,
		City:                     b.City,
		AverageRating:            b.AverageRating,
		DeliveryFee:              b.DeliveryFee,
		MinimumOrderAmount:       b.MinimumOrderAmount,
		EstimatedDeliveryMinutes: b.EstimatedDeliveryTimeMinutes,
		IsOpen:                   boolOr(b.IsOpen, true),
		IsAcceptingOrders:        boolOr(b.IsAcceptingOrders, true),
		LogoURL:                  b.LogoURL,
		CoverImageURL:            b.CoverImageURL,
	}
}

type backendMenuItem struct {
	ID            ID              `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Category      string          `json:"category"`
	Type          string          `json:"type"`
	SpiceLevel    string          `json:"spiceLevel"`
	IsAvailable   *bool           `json:"isAvailable"`
	IsRecommended bool            `json:"isRecommended"`
	ImageURL      string          `json:"imageUrl"`
}

func (b backendMenuItem) toMenuItem() MenuItem {
	return MenuItem{
		ID:            b.ID,
		Name:          b.Name,
		Description:   b.Description,
		Price:         b.Price,
		Category:      b.Category,
		Type:          b.Type,
		SpiceLevel:    b.SpiceLevel,
		IsAvailable:   boolOr(b.IsAvailable, true),
		IsRecommended: b.IsRecommended,
		ImageURL:      b.ImageURL,
	}
}

// The backend defaults missing availability flags to true.
func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
