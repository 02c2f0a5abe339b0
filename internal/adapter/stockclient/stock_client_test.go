package stockclient

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/rl1809/checkout-choreography/internal/adapter/handler/stockrpc"
	"github.com/rl1809/checkout-choreography/internal/port"
)

type fakeStockServer struct {
	stockrpc.UnimplementedStockServiceServer
	mu       sync.Mutex
	stock    map[string]int32
	delay    time.Duration
	fail     error
	requests [][]string
}

func (f *fakeStockServer) wait(ctx context.Context) error {
	if f.delay == 0 {
		return nil
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeStockServer) GetStock(ctx context.Context, req *stockrpc.StockRequest) (*stockrpc.StockResponse, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.fail != nil {
		return nil, f.fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	qty := f.stock[req.ItemNo]
	return &stockrpc.StockResponse{ItemNo: req.ItemNo, Quantity: qty, IsAvailable: qty > 0}, nil
}

// GetStocks only returns items it knows about.
func (f *fakeStockServer) GetStocks(ctx context.Context, req *stockrpc.StocksRequest) (*stockrpc.StocksResponse, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.fail != nil {
		return nil, f.fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req.ItemNos)

	resp := &stockrpc.StocksResponse{}
	for _, itemNo := range req.ItemNos {
		if qty, ok := f.stock[itemNo]; ok {
			resp.Stocks = append(resp.Stocks, &stockrpc.StockResponse{ItemNo: itemNo, Quantity: qty, IsAvailable: qty > 0})
		}
	}
	return resp, nil
}

func (f *fakeStockServer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func startClient(t *testing.T, srv *fakeStockServer, timeout time.Duration) *StockClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	stockrpc.RegisterStockServiceServer(server, srv)
	go server.Serve(lis)

	conn, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
		server.Stop()
	})
	return NewStockClient(conn, timeout)
}

func TestStockClient_ValidateCartStock(t *testing.T) {
	srv := &fakeStockServer{stock: map[string]int32{"A1": 5, "B2": 0, "C3": 2}}
	client := startClient(t, srv, time.Second)

	got, err := client.ValidateCartStock(context.Background(), map[string]int{
		"A1": 2,
		"B2": 1,
		"C3": 3,
		"Z9": 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]bool{"A1": true, "B2": false, "C3": false, "Z9": false}
	for itemNo, available := range want {
		if got[itemNo] != available {
			t.Errorf("expected %s available=%v, got %v", itemNo, available, got[itemNo])
		}
	}

	if srv.calls() != 1 {
		t.Errorf("expected exactly 1 GetStocks call, got %d", srv.calls())
	}
}

func TestStockClient_ExactQuantityIsAvailable(t *testing.T) {
	srv := &fakeStockServer{stock: map[string]int32{"A1": 3}}
	client := startClient(t, srv, time.Second)

	got, err := client.ValidateCartStock(context.Background(), map[string]int{"A1": 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got["A1"] {
		t.Error("expected A1 to be available when stock equals requested quantity")
	}
}

func TestStockClient_EmptyCartSkipsRPC(t *testing.T) {
	srv := &fakeStockServer{stock: map[string]int32{}}
	client := startClient(t, srv, time.Second)

	got, err := client.ValidateCartStock(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
	if srv.calls() != 0 {
		t.Errorf("expected no RPC, got %d", srv.calls())
	}
}

func TestStockClient_TimeoutIsUnavailable(t *testing.T) {
	srv := &fakeStockServer{stock: map[string]int32{"A1": 5}, delay: 2 * time.Second}
	client := startClient(t, srv, 50*time.Millisecond)

	start := time.Now()
	got, err := client.ValidateCartStock(context.Background(), map[string]int{"A1": 1})
	if !errors.Is(err, port.ErrStockUnavailable) {
		t.Fatalf("expected ErrStockUnavailable, got %v", err)
	}
	if got != nil {
		t.Errorf("expected no availability map on timeout, got %v", got)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("expected call to give up near the deadline, took %v", elapsed)
	}
}

func TestStockClient_ServerErrorIsUnavailable(t *testing.T) {
	srv := &fakeStockServer{fail: status.Error(codes.Unavailable, "ledger down")}
	client := startClient(t, srv, time.Second)

	if _, err := client.ValidateCartStock(context.Background(), map[string]int{"A1": 1}); !errors.Is(err, port.ErrStockUnavailable) {
		t.Errorf("expected ErrStockUnavailable, got %v", err)
	}
	if _, err := client.GetStock(context.Background(), "A1"); !errors.Is(err, port.ErrStockUnavailable) {
		t.Errorf("expected ErrStockUnavailable from GetStock, got %v", err)
	}
}

func TestStockClient_GetStock(t *testing.T) {
	srv := &fakeStockServer{stock: map[string]int32{"A1": 7}}
	client := startClient(t, srv, time.Second)

	stock, err := client.GetStock(context.Background(), "A1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stock.ItemNo != "A1" || stock.Quantity != 7 {
		t.Errorf("expected A1/7, got %s/%d", stock.ItemNo, stock.Quantity)
	}
}
