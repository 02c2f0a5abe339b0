package port

import (
	"context"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
)

type BasketRepository interface {
	// GetBasket returns nil, nil when the user has no basket
	GetBasket(ctx context.Context, userName string) (*domain.Basket, error)

	// SaveBasket overwrites the user's basket and refreshes its expiry
	SaveBasket(ctx context.Context, basket *domain.Basket) error

	// DeleteBasket removes the basket, returns false if there was none
	DeleteBasket(ctx context.Context, userName string) (bool, error)
}
