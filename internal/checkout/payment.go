package checkout

import "strings"

// PaymentMethod is the backend's payment enum.
type PaymentMethod string

// Payment methods accepted by the order backend.
const (
	PaymentCreditCard     PaymentMethod = "CREDIT_CARD"
	PaymentCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	PaymentWallet         PaymentMethod = "WALLET"
)

// ParsePaymentMethod maps a storefront payment selection to the backend
// enum. Unknown selections fall back to credit card.
func ParsePaymentMethod(selection string) PaymentMethod {
	switch strings.ToLower(strings.TrimSpace(selection)) {
	case "card", "credit_card":
		return PaymentCreditCard
	case "cash", "cash_on_delivery":
		return PaymentCashOnDelivery
	case "wallet":
		return PaymentWallet
	default:
		return PaymentCreditCard
	}
}

// RequiresCard reports whether the method needs card details at checkout.
func (m PaymentMethod) RequiresCard() bool {
	return m != PaymentCashOnDelivery
}

// CardDetails are checked for presence only. They are never forwarded to
// the backend.
type CardDetails struct {
	CardNumber     string `json:"card_number" validate:"required,min=12,max=19"`
	ExpiryDate     string `json:"expiry_date" validate:"required"`
	CVV            string `json:"cvv" validate:"required,min=3,max=4"`
	CardholderName string `json:"cardholder_name" validate:"required,max=100"`
}
