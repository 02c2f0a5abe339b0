package port

import "errors"

var (
	ErrDuplicateCheckout = errors.New("checkout already processed")
	ErrStockUnavailable  = errors.New("stock validation unavailable")
	ErrOrderNotFound     = errors.New("order not found")
)
