package domain

import "strings"

// Address is a delivery destination.
type Address struct {
	Street    string `json:"street" validate:"required,max=255"`
	Apartment string `json:"apartment,omitempty" validate:"max=100"`
	City      string `json:"city" validate:"required,max=100"`
	State     string `json:"state" validate:"required,max=100"`
	ZipCode   string `json:"zip_code" validate:"required,max=20"`
}

// Format joins the non-empty parts of the address with ", ".
func (a Address) Format() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.Apartment, a.City, a.State, a.ZipCode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
