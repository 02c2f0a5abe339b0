package handler

import (
	"context"
	"errors"
	"math"
	"net"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/rl1809/checkout-choreography/internal/adapter/handler/stockrpc"
	"github.com/rl1809/checkout-choreography/internal/core/service"
	"github.com/rl1809/checkout-choreography/internal/metrics"
)

func startStockServer(t *testing.T, ledger *fakeLedger, m *metrics.StockMetrics) stockrpc.StockServiceClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	stockrpc.RegisterStockServiceServer(server, NewStockGRPCHandler(service.NewStockQueryService(ledger, testLogger()), m))
	go server.Serve(lis)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		server.Stop()
	})
	return stockrpc.NewStockServiceClient(conn)
}

func TestStockGRPC_GetStock(t *testing.T) {
	ledger := &fakeLedger{}
	ledger.add("A1", 5)
	ledger.add("A1", -2)
	client := startStockServer(t, ledger, nil)

	resp, err := client.GetStock(context.Background(), &stockrpc.StockRequest{ItemNo: "A1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ItemNo != "A1" || resp.Quantity != 3 || !resp.IsAvailable {
		t.Errorf("expected A1/3/available, got %+v", resp)
	}

	resp, err = client.GetStock(context.Background(), &stockrpc.StockRequest{ItemNo: "Z9"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Quantity != 0 || resp.IsAvailable {
		t.Errorf("expected unknown item to be 0 and unavailable, got %+v", resp)
	}
}

func TestStockGRPC_QuantitySaturatesAtInt32(t *testing.T) {
	ledger := &fakeLedger{}
	ledger.add("A1", math.MaxInt32)
	ledger.add("A1", 10)
	ledger.add("B2", math.MinInt32)
	ledger.add("B2", -10)
	client := startStockServer(t, ledger, nil)

	resp, err := client.GetStocks(context.Background(), &stockrpc.StocksRequest{ItemNos: []string{"A1", "B2"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Stocks) != 2 {
		t.Fatalf("expected 2 stocks, got %d", len(resp.Stocks))
	}
	if a := resp.Stocks[0]; a.Quantity != math.MaxInt32 || !a.IsAvailable {
		t.Errorf("expected A1 saturated at MaxInt32 and available, got %+v", a)
	}
	if b := resp.Stocks[1]; b.Quantity != math.MinInt32 || b.IsAvailable {
		t.Errorf("expected B2 saturated at MinInt32 and unavailable, got %+v", b)
	}
}

func TestStockGRPC_GetStocksMatchesGetStock(t *testing.T) {
	ledger := &fakeLedger{}
	ledger.add("A1", 5)
	ledger.add("B2", 1)
	ledger.add("B2", -1)
	client := startStockServer(t, ledger, nil)

	items := []string{"A1", "B2", "Z9", "A1"}
	batch, err := client.GetStocks(context.Background(), &stockrpc.StocksRequest{ItemNos: items})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Stocks) != 3 {
		t.Fatalf("expected 3 distinct items, got %d", len(batch.Stocks))
	}

	for _, s := range batch.Stocks {
		single, err := client.GetStock(context.Background(), &stockrpc.StockRequest{ItemNo: s.ItemNo})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if single.Quantity != s.Quantity || single.IsAvailable != s.IsAvailable {
			t.Errorf("item %s: batch %+v differs from single %+v", s.ItemNo, s, single)
		}
	}
}

func TestStockGRPC_InvalidArgument(t *testing.T) {
	m := metrics.NewStockMetrics(prometheus.NewRegistry())
	client := startStockServer(t, &fakeLedger{}, m)

	_, err := client.GetStock(context.Background(), &stockrpc.StockRequest{})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}

	_, err = client.GetStocks(context.Background(), &stockrpc.StocksRequest{ItemNos: []string{"A1", ""}})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}

	if got := testutil.ToFloat64(m.Calls.WithLabelValues("GetStock", codes.InvalidArgument.String())); got != 1 {
		t.Errorf("expected 1 invalid GetStock call recorded, got %v", got)
	}
}

func TestStockGRPC_StoreDown(t *testing.T) {
	m := metrics.NewStockMetrics(prometheus.NewRegistry())
	client := startStockServer(t, &fakeLedger{fail: errors.New("connection refused")}, m)

	_, err := client.GetStocks(context.Background(), &stockrpc.StocksRequest{ItemNos: []string{"A1"}})
	if status.Code(err) != codes.Unavailable {
		t.Errorf("expected Unavailable, got %v", err)
	}
	if got := testutil.ToFloat64(m.Calls.WithLabelValues("GetStocks", codes.Unavailable.String())); got != 1 {
		t.Errorf("expected 1 unavailable GetStocks call recorded, got %v", got)
	}
}
