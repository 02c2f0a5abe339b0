package port

import (
	"context"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
)

type CheckoutPublisher interface {
	PublishCheckout(ctx context.Context, event domain.CheckoutEvent) error
}
