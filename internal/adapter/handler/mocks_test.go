package handler

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type memBaskets struct {
	mu      sync.Mutex
	baskets map[string]*domain.Basket
}

func newMemBaskets() *memBaskets {
	return &memBaskets{baskets: make(map[string]*domain.Basket)}
}

func (m *memBaskets) GetBasket(ctx context.Context, userName string) (*domain.Basket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.baskets[userName]
	if !ok {
		return nil, nil
	}
	cp := *b
	cp.Items = append([]domain.BasketItem(nil), b.Items...)
	return &cp, nil
}

func (m *memBaskets) SaveBasket(ctx context.Context, basket *domain.Basket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *basket
	cp.Items = append([]domain.BasketItem(nil), basket.Items...)
	m.baskets[basket.UserName] = &cp
	return nil
}

func (m *memBaskets) DeleteBasket(ctx context.Context, userName string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.baskets[userName]
	delete(m.baskets, userName)
	return ok, nil
}

func (m *memBaskets) has(userName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.baskets[userName]
	return ok
}

type memGuard struct {
	mu   sync.Mutex
	held map[string]string
}

func newMemGuard() *memGuard {
	return &memGuard{held: make(map[string]string)}
}

func (m *memGuard) AcquireCheckoutLock(ctx context.Context, userName, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[userName]; ok {
		return false, nil
	}
	m.held[userName] = token
	return true, nil
}

func (m *memGuard) ReleaseCheckoutLock(ctx context.Context, userName, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[userName] == token {
		delete(m.held, userName)
	}
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.CheckoutEvent
}

func (p *recordingPublisher) PublishCheckout(ctx context.Context, event domain.CheckoutEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) published() []domain.CheckoutEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.CheckoutEvent(nil), p.events...)
}

// fakeLedger keeps entries in memory. A non-zero delay makes every read
// wait for it or for the context, whichever ends first.
type fakeLedger struct {
	mu      sync.Mutex
	entries []domain.InventoryEntry
	delay   time.Duration
	fail    error
}

func (l *fakeLedger) wait(ctx context.Context) error {
	if l.fail != nil {
		return l.fail
	}
	if l.delay == 0 {
		return nil
	}
	select {
	case <-time.After(l.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *fakeLedger) add(itemNo string, qty int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, domain.InventoryEntry{ItemNo: itemNo, Quantity: qty, CreatedAt: time.Now()})
}

func (l *fakeLedger) AppendEntries(ctx context.Context, entries []domain.InventoryEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entries...)
	return nil
}

func (l *fakeLedger) SumQuantity(ctx context.Context, itemNo string) (int, error) {
	if err := l.wait(ctx); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, e := range l.entries {
		if e.ItemNo == itemNo {
			total += e.Quantity
		}
	}
	return total, nil
}

func (l *fakeLedger) SumQuantities(ctx context.Context, itemNos []string) (map[string]int, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	wanted := make(map[string]bool, len(itemNos))
	for _, itemNo := range itemNos {
		wanted[itemNo] = true
	}
	sums := make(map[string]int)
	for _, e := range l.entries {
		if wanted[e.ItemNo] {
			sums[e.ItemNo] += e.Quantity
		}
	}
	return sums, nil
}

func (l *fakeLedger) ListEntries(ctx context.Context, itemNo string) ([]domain.InventoryEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.InventoryEntry
	for _, e := range l.entries {
		if e.ItemNo == itemNo {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type memOrders struct {
	mu     sync.Mutex
	orders map[int64]*domain.Order
	nextID int64
}

func newMemOrders() *memOrders {
	return &memOrders{orders: make(map[int64]*domain.Order)}
}

func (m *memOrders) CreateOrder(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	order.AssignID(m.nextID)
	m.orders[order.ID()] = rehydrate(order)
	return nil
}

func (m *memOrders) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	return rehydrate(o), nil
}

func (m *memOrders) ListOrdersByUser(ctx context.Context, userName string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for id := int64(1); id <= m.nextID; id++ {
		if o, ok := m.orders[id]; ok && o.Details().UserName == userName {
			out = append(out, rehydrate(o))
		}
	}
	return out, nil
}

func (m *memOrders) UpdateOrder(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID()] = rehydrate(order)
	return nil
}

func (m *memOrders) DeleteOrder(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
	return nil
}

func rehydrate(o *domain.Order) *domain.Order {
	return domain.RehydrateOrder(o.ID(), o.CheckoutID(), o.Details(), o.Status(), o.CreatedAt(), o.UpdatedAt())
}
