package domain

// RestaurantRef identifies the restaurant a cart is bound to.
type RestaurantRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Restaurant returns the restaurant the cart currently belongs to. Both
// fields are empty when the cart has no lines.
func (c *Cart) Restaurant() RestaurantRef {
	return RestaurantRef{ID: c.RestaurantID, Name: c.RestaurantName}
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// IsPristine reports whether the cart holds nothing worth persisting. The
// open flag is transient and does not count.
func (c *Cart) IsPristine() bool {
	return c.IsEmpty() && c.DeliveryAddress == nil && c.DiscountAmount.IsZero()
}
