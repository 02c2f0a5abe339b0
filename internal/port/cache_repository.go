package port

import "context"

type CheckoutGuard interface {
	// AcquireCheckoutLock claims the user's checkout slot, returns false if another checkout holds it
	AcquireCheckoutLock(ctx context.Context, userName, token string) (bool, error)

	// ReleaseCheckoutLock frees the slot only if it is still held with token
	ReleaseCheckoutLock(ctx context.Context, userName, token string) error
}
