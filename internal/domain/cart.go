package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/foodieexpress/storefront/pkg/errors"
)

// Pricing constants applied by Recompute.
var (
	// TaxRate is applied to the subtotal.
	TaxRate = decimal.RequireFromString("0.08")
	// FlatDeliveryFee is charged whenever a delivery address is set.
	FlatDeliveryFee = decimal.RequireFromString("2.99")
)

// MenuItem is the catalog snapshot stored on a cart line. Later catalog
// price changes never reach lines already in the cart.
type MenuItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url,omitempty"`
	Available bool            `json:"available"`
}

// CartLine is a single entry in the cart. Lines are unique by
// (menu item id, customizations).
type CartLine struct {
	MenuItem       MenuItem        `json:"menu_item"`
	Quantity       int             `json:"quantity"`
	RestaurantID   string          `json:"restaurant_id"`
	Customizations []string        `json:"customizations"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

// Cart is the per-session shopping cart together with its derived pricing.
type Cart struct {
	Lines           []CartLine      `json:"lines"`
	RestaurantID    string          `json:"restaurant_id"`
	RestaurantName  string          `json:"restaurant_name"`
	DeliveryAddress *Address        `json:"delivery_address"`
	ItemCount       int             `json:"item_count"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
	IsOpen          bool            `json:"is_open"`
	Version         int             `json:"version"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{Lines: []CartLine{}}
}

// AddItem puts quantity units of item into the cart. Adding from a different
// restaurant discards the existing lines first. A line with the same menu
// item and customizations is merged by summing quantities.
func (c *Cart) AddItem(item MenuItem, quantity int, restaurantID, restaurantName string, customizations []string) error {
	if item.ID == "" {
		return apperrors.InvalidInput("menu item id is required")
	}
	if restaurantID == "" {
		return apperrors.InvalidInput("restaurant id is required")
	}
	if quantity < 1 {
		return apperrors.InvalidInput("quantity must be at least 1")
	}
	if item.Price.IsNegative() {
		return apperrors.InvalidInput("price must not be negative")
	}

	if c.RestaurantID != "" && c.RestaurantID != restaurantID {
		c.Lines = []CartLine{}
	}
	c.RestaurantID = restaurantID
	c.RestaurantName = restaurantName

	customizations = normalize(customizations)
	if i := c.FindLineIndex(item.ID, customizations); i >= 0 {
		c.Lines[i].Quantity += quantity
	} else {
		c.Lines = append(c.Lines, CartLine{
			MenuItem:       item,
			Quantity:       quantity,
			RestaurantID:   restaurantID,
			Customizations: customizations,
		})
	}

	c.Recompute()
	return nil
}

// RemoveItem deletes the matching line. Missing lines are ignored.
func (c *Cart) RemoveItem(menuItemID string, customizations []string) {
	if i := c.FindLineIndex(menuItemID, customizations); i >= 0 {
		c.Lines = slices.Delete(c.Lines, i, i+1)
	}
	c.releaseRestaurantIfEmpty()
	c.Recompute()
}

// UpdateQuantity sets the quantity of the matching line. A quantity of zero
// or less removes the line. Missing lines are ignored.
func (c *Cart) UpdateQuantity(menuItemID string, quantity int, customizations []string) {
	if i := c.FindLineIndex(menuItemID, customizations); i >= 0 {
		if quantity <= 0 {
			c.Lines = slices.Delete(c.Lines, i, i+1)
		} else {
			c.Lines[i].Quantity = quantity
		}
	}
	c.releaseRestaurantIfEmpty()
	c.Recompute()
}

// Clear resets the cart to its empty state. The open flag is left alone.
func (c *Cart) Clear() {
	c.Lines = []CartLine{}
	c.RestaurantID = ""
	c.RestaurantName = ""
	c.DeliveryAddress = nil
	c.ItemCount = 0
	c.Subtotal = decimal.Zero
	c.DeliveryFee = decimal.Zero
	c.TaxAmount = decimal.Zero
	c.DiscountAmount = decimal.Zero
	c.GrandTotal = decimal.Zero
}

// RemoveOrdered takes the quantities of ordered out of the cart, dropping
// lines that reach zero. Lines the order did not contain are kept. The
// discount is reset since the order consumed it.
func (c *Cart) RemoveOrdered(ordered []CartLine) {
	for _, o := range ordered {
		i := c.FindLineIndex(o.MenuItem.ID, o.Customizations)
		if i < 0 {
			continue
		}
		if c.Lines[i].Quantity <= o.Quantity {
			c.Lines = slices.Delete(c.Lines, i, i+1)
		} else {
			c.Lines[i].Quantity -= o.Quantity
		}
	}
	c.DiscountAmount = decimal.Zero
	c.releaseRestaurantIfEmpty()
	c.Recompute()
}

// SetDeliveryAddress stores addr and sets the flat delivery fee. A nil
// address removes the fee.
func (c *Cart) SetDeliveryAddress(addr *Address) {
	if addr == nil {
		c.DeliveryAddress = nil
		c.DeliveryFee = decimal.Zero
	} else {
		a := *addr
		c.DeliveryAddress = &a
		c.DeliveryFee = FlatDeliveryFee
	}
	c.Recompute()
}

// ApplyDiscount replaces the discount amount. The amount is not checked
// against the subtotal, so the grand total may go negative.
func (c *Cart) ApplyDiscount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperrors.InvalidInput("discount must not be negative")
	}
	c.DiscountAmount = amount
	c.Recompute()
	return nil
}

// Recompute derives every computed field from the lines, the delivery fee
// and the discount.
func (c *Cart) Recompute() {
	if c.Lines == nil {
		c.Lines = []CartLine{}
	}

	count := 0
	subtotal := decimal.Zero
	for i := range c.Lines {
		line := &c.Lines[i]
		line.LineTotal = line.MenuItem.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		count += line.Quantity
		subtotal = subtotal.Add(line.LineTotal)
	}

	c.ItemCount = count
	c.Subtotal = subtotal
	c.TaxAmount = subtotal.Mul(TaxRate)
	c.GrandTotal = subtotal.Add(c.DeliveryFee).Add(c.TaxAmount).Sub(c.DiscountAmount)
}

// ToggleOpen flips the open flag.
func (c *Cart) ToggleOpen() { c.IsOpen = !c.IsOpen }

// Open marks the cart as visible.
func (c *Cart) Open() { c.IsOpen = true }

// Close marks the cart as hidden.
func (c *Cart) Close() { c.IsOpen = false }

// FindLineIndex returns the index of the line keyed by menuItemID and
// customizations, or -1. Customization order matters.
func (c *Cart) FindLineIndex(menuItemID string, customizations []string) int {
	customizations = normalize(customizations)
	for i := range c.Lines {
		if c.Lines[i].MenuItem.ID == menuItemID && slices.Equal(c.Lines[i].Customizations, customizations) {
			return i
		}
	}
	return -1
}

// Snapshot returns a deep copy that shares no memory with c.
func (c *Cart) Snapshot() *Cart {
	cp := *c
	cp.Lines = make([]CartLine, len(c.Lines))
	for i, line := range c.Lines {
		line.Customizations = slices.Clone(line.Customizations)
		cp.Lines[i] = line
	}
	if c.DeliveryAddress != nil {
		a := *c.DeliveryAddress
		cp.DeliveryAddress = &a
	}
	return &cp
}

// Validate checks the invariants every mutation preserves. It is meant for
// carts read back from storage.
func (c *Cart) Validate() error {
	if (c.RestaurantID == "") != (len(c.Lines) == 0) {
		return apperrors.InvalidInput("restaurant id does not match cart lines")
	}
	for i, line := range c.Lines {
		if line.MenuItem.ID == "" {
			return apperrors.InvalidInput(fmt.Sprintf("line %d has no menu item id", i))
		}
		if line.Quantity < 1 {
			return apperrors.InvalidInput(fmt.Sprintf("line %d has quantity %d", i, line.Quantity))
		}
		if line.MenuItem.Price.IsNegative() {
			return apperrors.InvalidInput(fmt.Sprintf("line %d has a negative price", i))
		}
		if line.RestaurantID != c.RestaurantID {
			return apperrors.InvalidInput(fmt.Sprintf("line %d belongs to restaurant %q", i, line.RestaurantID))
		}
		for _, prev := range c.Lines[:i] {
			if prev.MenuItem.ID == line.MenuItem.ID && slices.Equal(normalize(prev.Customizations), normalize(line.Customizations)) {
				return apperrors.InvalidInput(fmt.Sprintf("line %d duplicates an earlier line", i))
			}
		}
	}
	switch {
	case c.DeliveryAddress == nil && !c.DeliveryFee.IsZero():
		return apperrors.InvalidInput("delivery fee set without an address")
	case c.DeliveryAddress != nil && !c.DeliveryFee.Equal(FlatDeliveryFee):
		return apperrors.InvalidInput("delivery fee does not match the address")
	}
	if c.DiscountAmount.IsNegative() {
		return apperrors.InvalidInput("discount must not be negative")
	}
	return nil
}

func (c *Cart) releaseRestaurantIfEmpty() {
	if len(c.Lines) == 0 {
		c.RestaurantID = ""
		c.RestaurantName = ""
	}
}

func normalize(customizations []string) []string {
	if len(customizations) == 0 {
		return []string{}
	}
	return slices.Clone(customizations)
}
