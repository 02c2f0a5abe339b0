package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BasketItem struct {
	ItemNo    string          `json:"itemNo"`
	ItemName  string          `json:"itemName"`
	ItemPrice decimal.Decimal `json:"itemPrice"`
	Quantity  int             `json:"quantity"`
}

type Basket struct {
	UserName  string       `json:"userName"`
	Items     []BasketItem `json:"items"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func NewBasket(userName string) *Basket {
	return &Basket{UserName: userName, Items: []BasketItem{}}
}

// TotalPrice is the sum of itemPrice * quantity over every line.
func (b *Basket) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range b.Items {
		total = total.Add(item.ItemPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// ItemQuantities folds the lines into itemNo -> requested quantity.
// Lines repeating an itemNo are summed.
func (b *Basket) ItemQuantities() map[string]int {
	quantities := make(map[string]int, len(b.Items))
	for _, item := range b.Items {
		quantities[item.ItemNo] += item.Quantity
	}
	return quantities
}

func (b *Basket) IsEmpty() bool {
	return len(b.Items) == 0
}

// CheckoutRequest is what the shopper submits at checkout. A TotalPrice of
// zero or less means "use the basket total".
type CheckoutRequest struct {
	UserName        string          `json:"userName"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	EmailAddress    string          `json:"emailAddress"`
	ShippingAddress string          `json:"shippingAddress"`
	InvoiceAddress  string          `json:"invoiceAddress"`
}
