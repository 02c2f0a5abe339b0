// Package stockclient validates basket lines against the inventory service
// over gRPC.
package stockclient

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rl1809/checkout-choreography/internal/adapter/handler/stockrpc"
	"github.com/rl1809/checkout-choreography/internal/core/domain"
	"github.com/rl1809/checkout-choreography/internal/port"
)

const DefaultTimeout = 3 * time.Second

type StockClient struct {
	client  stockrpc.StockServiceClient
	timeout time.Duration
}

// Dial opens a plaintext, traced connection to the inventory service. The
// caller owns the returned connection.
func Dial(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}, opts...)

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial stock service %s: %w", target, err)
	}
	return conn, nil
}

func NewStockClient(cc grpc.ClientConnInterface, timeout time.Duration) *StockClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &StockClient{client: stockrpc.NewStockServiceClient(cc), timeout: timeout}
}

// ValidateCartStock asks for every item in one GetStocks call. An item is
// available when the returned quantity covers the requested one; items the
// server leaves out count as zero.
func (c *StockClient) ValidateCartStock(ctx context.Context, itemQuantities map[string]int) (map[string]bool, error) {
	result := make(map[string]bool, len(itemQuantities))
	if len(itemQuantities) == 0 {
		return result, nil
	}

	itemNos := make([]string, 0, len(itemQuantities))
	for itemNo := range itemQuantities {
		itemNos = append(itemNos, itemNo)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.GetStocks(ctx, &stockrpc.StocksRequest{ItemNos: itemNos})
	if err != nil {
		return nil, fmt.Errorf("%w: GetStocks: %v", port.ErrStockUnavailable, err)
	}

	onHand := make(map[string]int32, len(resp.Stocks))
	for _, s := range resp.Stocks {
		if s != nil {
			onHand[s.ItemNo] = s.Quantity
		}
	}

	for itemNo, requested := range itemQuantities {
		result[itemNo] = int(onHand[itemNo]) >= requested
	}
	return result, nil
}

func (c *StockClient) GetStock(ctx context.Context, itemNo string) (domain.Stock, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.GetStock(ctx, &stockrpc.StockRequest{ItemNo: itemNo})
	if err != nil {
		return domain.Stock{}, fmt.Errorf("%w: GetStock %s: %v", port.ErrStockUnavailable, itemNo, err)
	}
	return domain.Stock{ItemNo: resp.ItemNo, Quantity: int(resp.Quantity)}, nil
}
