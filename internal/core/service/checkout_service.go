package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
	"github.com/rl1809/checkout-choreography/internal/metrics"
	"github.com/rl1809/checkout-choreography/internal/port"
)

// CheckoutService turns a basket into a published CheckoutEvent. The steps
// run in a fixed order and the first failure ends the attempt with the
// basket untouched. The basket is deleted only after a successful publish,
// and a failed delete is not compensated.
type CheckoutService struct {
	baskets   port.BasketRepository
	guard     port.CheckoutGuard
	stock     port.StockValidator
	publisher port.CheckoutPublisher
	metrics   *metrics.CheckoutMetrics
	log       *slog.Logger
}

func NewCheckoutService(
	baskets port.BasketRepository,
	guard port.CheckoutGuard,
	stock port.StockValidator,
	publisher port.CheckoutPublisher,
	m *metrics.CheckoutMetrics,
	log *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		baskets:   baskets,
		guard:     guard,
		stock:     stock,
		publisher: publisher,
		metrics:   m,
		log:       log,
	}
}

func (s *CheckoutService) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutEvent, error) {
	start := time.Now()
	event, err := s.checkout(ctx, req)
	s.metrics.Observe(outcomeLabel(err), time.Since(start))
	return event, err
}

func (s *CheckoutService) checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutEvent, error) {
	token := uuid.NewString()
	ok, err := s.guard.AcquireCheckoutLock(ctx, req.UserName, token)
	if err != nil {
		return domain.CheckoutEvent{}, fmt.Errorf("%w: acquire checkout lock: %v", ErrInternal, err)
	}
	if !ok {
		return domain.CheckoutEvent{}, ErrCheckoutInProgress
	}
	defer func() {
		// The request context may already be cancelled here.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := s.guard.ReleaseCheckoutLock(releaseCtx, req.UserName, token); err != nil {
			s.log.WarnContext(ctx, "release checkout lock failed", "user_name", req.UserName, "err", err)
		}
	}()

	basket, err := s.baskets.GetBasket(ctx, req.UserName)
	if err != nil {
		return domain.CheckoutEvent{}, fmt.Errorf("%w: load basket: %v", ErrInternal, err)
	}
	if basket == nil || basket.IsEmpty() {
		s.log.WarnContext(ctx, "basket not found", "user_name", req.UserName)
		return domain.CheckoutEvent{}, fmt.Errorf("basket for %s: %w", req.UserName, ErrNotFound)
	}

	availability, err := s.stock.ValidateCartStock(ctx, basket.ItemQuantities())
	if err != nil {
		s.log.ErrorContext(ctx, "stock validation failed", "user_name", req.UserName, "err", err)
		return domain.CheckoutEvent{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if outOfStock := unavailableItems(basket, availability); len(outOfStock) > 0 {
		s.log.WarnContext(ctx, "items out of stock", "user_name", req.UserName, "items", outOfStock)
		return domain.CheckoutEvent{}, &OutOfStockError{Items: outOfStock}
	}

	event := buildCheckoutEvent(req, basket)
	if err := event.OrderDetails().Validate(); err != nil {
		s.log.WarnContext(ctx, "checkout rejected", "user_name", req.UserName, "err", err)
		return domain.CheckoutEvent{}, fmt.Errorf("%w: %w", ErrInvalidOrder, err)
	}

	if err := s.publisher.PublishCheckout(ctx, event); err != nil {
		s.log.ErrorContext(ctx, "publish checkout event failed", "user_name", req.UserName, "checkout_id", event.CheckoutID, "err", err)
		return domain.CheckoutEvent{}, fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}
	s.log.InfoContext(ctx, "checkout event published", "user_name", req.UserName, "checkout_id", event.CheckoutID, "total_price", event.TotalPrice.StringFixed(2))

	// The event is out; a basket left behind here only stays visible.
	if _, err := s.baskets.DeleteBasket(ctx, req.UserName); err != nil {
		s.log.ErrorContext(ctx, "delete basket after checkout failed", "user_name", req.UserName, "checkout_id", event.CheckoutID, "err", err)
	}

	return event, nil
}

// unavailableItems returns, sorted, every basket item the validator did not
// confirm. Items missing from availability count as unavailable.
func unavailableItems(basket *domain.Basket, availability map[string]bool) []string {
	var out []string
	for itemNo := range basket.ItemQuantities() {
		if !availability[itemNo] {
			out = append(out, itemNo)
		}
	}
	sort.Strings(out)
	return out
}

func buildCheckoutEvent(req domain.CheckoutRequest, basket *domain.Basket) domain.CheckoutEvent {
	total := basket.TotalPrice()
	if req.TotalPrice.IsPositive() {
		total = req.TotalPrice
	}

	return domain.CheckoutEvent{
		CheckoutID:      uuid.NewString(),
		UserName:        req.UserName,
		TotalPrice:      total,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		EmailAddress:    req.EmailAddress,
		ShippingAddress: req.ShippingAddress,
		InvoiceAddress:  req.InvoiceAddress,
		CreatedAt:       time.Now().UTC(),
	}
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidationFailed):
		return "out_of_stock"
	case errors.Is(err, ErrServiceUnavailable):
		return "stock_unavailable"
	case errors.Is(err, ErrPublishFailed):
		return "publish_failed"
	case errors.Is(err, ErrCheckoutInProgress):
		return "in_progress"
	case errors.Is(err, ErrInvalidOrder):
		return "invalid_request"
	default:
		return "error"
	}
}
