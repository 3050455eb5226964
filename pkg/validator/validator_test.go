package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineInput struct {
	MenuItemID string          `json:"menu_item_id" validate:"required"`
	Quantity   int             `json:"quantity" validate:"gte=1,lte=99"`
	Price      decimal.Decimal `json:"price" validate:"gte=0"`
	Payment    string          `json:"payment_method" validate:"omitempty,oneof=card cash wallet"`
}

func TestValidate_Valid(t *testing.T) {
	err := Validate(lineInput{MenuItemID: "p1", Quantity: 2, Price: decimal.RequireFromString("10.00")})
	assert.NoError(t, err)
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	err := Validate(lineInput{Quantity: 0, Price: decimal.Zero})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["menu_item_id"])
	assert.Equal(t, "must be greater than or equal to 1", fields["quantity"])
}

func TestValidate_DecimalNegativePrice(t *testing.T) {
	err := Validate(lineInput{MenuItemID: "p1", Quantity: 1, Price: decimal.RequireFromString("-0.01")})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields(), "price")
}

func TestValidate_OneOf(t *testing.T) {
	err := Validate(lineInput{MenuItemID: "p1", Quantity: 1, Payment: "bitcoin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of: card cash wallet")
}

func TestDecodeAndValidate(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"menu_item_id":"p1","quantity":3,"price":"4.50"}`))

	var dst lineInput
	require.NoError(t, DecodeAndValidate(req, &dst))
	assert.Equal(t, 3, dst.Quantity)
	assert.True(t, dst.Price.Equal(decimal.RequireFromString("4.5")))
}

func TestDecodeAndValidate_BadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))

	var dst lineInput
	err := DecodeAndValidate(req, &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
