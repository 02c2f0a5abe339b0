package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
	"github.com/rl1809/checkout-choreography/internal/port"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Mock BasketRepository
type mockBasketRepo struct {
	baskets   map[string]*domain.Basket
	getErr    error
	deleteErr error
	mu        sync.Mutex
}

func newMockBasketRepo() *mockBasketRepo {
	return &mockBasketRepo{baskets: make(map[string]*domain.Basket)}
}

func (m *mockBasketRepo) GetBasket(ctx context.Context, userName string) (*domain.Basket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	b, ok := m.baskets[userName]
	if !ok {
		return nil, nil
	}
	cp := *b
	cp.Items = append([]domain.BasketItem(nil), b.Items...)
	return &cp, nil
}

func (m *mockBasketRepo) SaveBasket(ctx context.Context, basket *domain.Basket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *basket
	m.baskets[basket.UserName] = &cp
	return nil
}

func (m *mockBasketRepo) DeleteBasket(ctx context.Context, userName string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return false, m.deleteErr
	}
	_, ok := m.baskets[userName]
	delete(m.baskets, userName)
	return ok, nil
}

// Mock CheckoutGuard
type mockGuard struct {
	held     map[string]string
	released int
	mu       sync.Mutex
}

func newMockGuard() *mockGuard {
	return &mockGuard{held: make(map[string]string)}
}

func (m *mockGuard) AcquireCheckoutLock(ctx context.Context, userName, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[userName]; ok {
		return false, nil
	}
	m.held[userName] = token
	return true, nil
}

func (m *mockGuard) ReleaseCheckoutLock(ctx context.Context, userName, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[userName] == token {
		delete(m.held, userName)
		m.released++
	}
	return nil
}

// Mock StockValidator backed by a fixed stock table, with the same
// available = stock >= requested rule as the gRPC client.
type mockStockValidator struct {
	stock map[string]int
	err   error
	calls int
	mu    sync.Mutex
}

func (m *mockStockValidator) ValidateCartStock(ctx context.Context, itemQuantities map[string]int) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]bool, len(itemQuantities))
	for itemNo, qty := range itemQuantities {
		out[itemNo] = m.stock[itemNo] >= qty
	}
	return out, nil
}

func (m *mockStockValidator) GetStock(ctx context.Context, itemNo string) (domain.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Stock{}, m.err
	}
	return domain.Stock{ItemNo: itemNo, Quantity: m.stock[itemNo]}, nil
}

// Mock CheckoutPublisher
type mockPublisher struct {
	events []domain.CheckoutEvent
	err    error
	mu     sync.Mutex
}

func (m *mockPublisher) PublishCheckout(ctx context.Context, event domain.CheckoutEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) published() []domain.CheckoutEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CheckoutEvent(nil), m.events...)
}

// Mock OrderRepository with a processed-checkout set, mirroring the
// unique constraint of the real store.
type mockOrderRepo struct {
	orders    map[int64]*domain.Order
	processed map[string]bool
	nextID    int64
	createErr error
	// rowGone makes writes behave as if the row was deleted after the read.
	rowGone bool
	mu      sync.Mutex
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{
		orders:    make(map[int64]*domain.Order),
		processed: make(map[string]bool),
	}
}

func (m *mockOrderRepo) CreateOrder(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if id := order.CheckoutID(); id != "" {
		if m.processed[id] {
			return port.ErrDuplicateCheckout
		}
		m.processed[id] = true
	}
	m.nextID++
	order.AssignID(m.nextID)
	m.orders[m.nextID] = snapshot(order)
	return nil
}

func (m *mockOrderRepo) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	return snapshot(o), nil
}

func (m *mockOrderRepo) ListOrdersByUser(ctx context.Context, userName string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if o.Details().UserName == userName {
			out = append(out, snapshot(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (m *mockOrderRepo) UpdateOrder(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID()]; !ok || m.rowGone {
		return port.ErrOrderNotFound
	}
	m.orders[order.ID()] = snapshot(order)
	return nil
}

func (m *mockOrderRepo) DeleteOrder(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok || m.rowGone {
		return port.ErrOrderNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *mockOrderRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func snapshot(o *domain.Order) *domain.Order {
	return domain.RehydrateOrder(o.ID(), o.CheckoutID(), o.Details(), o.Status(), o.CreatedAt(), o.UpdatedAt())
}

// Mock EmailSender
type mockEmailSender struct {
	sent []port.EmailMessage
	err  error
	mu   sync.Mutex
}

func (m *mockEmailSender) Send(ctx context.Context, msg port.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Mock LedgerRepository
type mockLedger struct {
	entries       []domain.InventoryEntry
	err           error
	sumManyCalls  int
	sumSingleCall int
	mu            sync.Mutex
}

func (m *mockLedger) AppendEntries(ctx context.Context, entries []domain.InventoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *mockLedger) SumQuantity(ctx context.Context, itemNo string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sumSingleCall++
	if m.err != nil {
		return 0, m.err
	}
	total := 0
	for _, e := range m.entries {
		if e.ItemNo == itemNo {
			total += e.Quantity
		}
	}
	return total, nil
}

func (m *mockLedger) SumQuantities(ctx context.Context, itemNos []string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sumManyCalls++
	if m.err != nil {
		return nil, m.err
	}
	wanted := make(map[string]bool, len(itemNos))
	for _, n := range itemNos {
		wanted[n] = true
	}
	out := make(map[string]int)
	for _, e := range m.entries {
		if wanted[e.ItemNo] {
			out[e.ItemNo] += e.Quantity
		}
	}
	return out, nil
}

func (m *mockLedger) ListEntries(ctx context.Context, itemNo string) ([]domain.InventoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.InventoryEntry
	for _, e := range m.entries {
		if e.ItemNo == itemNo {
			out = append(out, e)
		}
	}
	return out, nil
}

func ledgerEntry(itemNo string, qty int) domain.InventoryEntry {
	return domain.InventoryEntry{ItemNo: itemNo, Quantity: qty, DocumentNo: "seed", DocumentType: domain.DocumentTypePurchase, CreatedAt: time.Now()}
}

// docOf builds a stock document from alternating itemNo, quantity pairs.
func docOf(documentNo string, pairs ...interface{}) domain.StockDocument {
	doc := domain.StockDocument{DocumentNo: documentNo}
	for i := 0; i+1 < len(pairs); i += 2 {
		doc.Lines = append(doc.Lines, domain.DocumentLine{ItemNo: pairs[i].(string), Quantity: pairs[i+1].(int)})
	}
	return doc
}
