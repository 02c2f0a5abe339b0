package port

import (
	"context"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
)

type StockValidator interface {
	// ValidateCartStock reports per item whether the requested quantity is on hand.
	// Transport failures are wrapped in ErrStockUnavailable.
	ValidateCartStock(ctx context.Context, itemQuantities map[string]int) (map[string]bool, error)

	GetStock(ctx context.Context, itemNo string) (domain.Stock, error)
}
