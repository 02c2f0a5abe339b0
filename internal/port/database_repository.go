package port

import (
	"context"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
)

type LedgerRepository interface {
	// AppendEntries writes entries atomically; entries are never updated afterwards
	AppendEntries(ctx context.Context, entries []domain.InventoryEntry) error

	// SumQuantity returns the summed deltas for one item, 0 when it has no entries
	SumQuantity(ctx context.Context, itemNo string) (int, error)

	// SumQuantities aggregates several items in one pass; items without entries are omitted
	SumQuantities(ctx context.Context, itemNos []string) (map[string]int, error)

	// ListEntries returns an item's entries oldest first
	ListEntries(ctx context.Context, itemNo string) ([]domain.InventoryEntry, error)
}

type OrderRepository interface {
	// CreateOrder inserts the order and records its checkout id in one transaction.
	// Returns ErrDuplicateCheckout if the checkout id was already processed.
	CreateOrder(ctx context.Context, order *domain.Order) error

	// GetOrder returns nil, nil when the order does not exist or was deleted
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)

	ListOrdersByUser(ctx context.Context, userName string) ([]*domain.Order, error)

	UpdateOrder(ctx context.Context, order *domain.Order) error

	// DeleteOrder soft-deletes the order
	DeleteOrder(ctx context.Context, id int64) error
}
