package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const CheckoutEventType = "basket.checked_out"

// CheckoutEvent is the message published on the event bus once a basket
// passed stock validation. CheckoutID is unique per checkout attempt and is
// what the ordering side deduplicates on.
type CheckoutEvent struct {
	CheckoutID      string          `json:"checkoutId"`
	UserName        string          `json:"userName"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	EmailAddress    string          `json:"emailAddress"`
	ShippingAddress string          `json:"shippingAddress"`
	InvoiceAddress  string          `json:"invoiceAddress"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// OrderDetails is the order the event asks the ordering side to create.
func (e CheckoutEvent) OrderDetails() OrderDetails {
	return OrderDetails{
		UserName:        e.UserName,
		TotalPrice:      e.TotalPrice,
		FirstName:       e.FirstName,
		LastName:        e.LastName,
		EmailAddress:    e.EmailAddress,
		ShippingAddress: e.ShippingAddress,
		InvoiceAddress:  e.InvoiceAddress,
	}
}
