package handler

import (
	"context"
	"errors"
	"math"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/checkout-choreography/internal/adapter/handler/stockrpc"
	"github.com/rl1809/checkout-choreography/internal/core/service"
	"github.com/rl1809/checkout-choreography/internal/metrics"
)

// StockGRPCHandler serves inventory.StockService from the ledger.
type StockGRPCHandler struct {
	stockrpc.UnimplementedStockServiceServer
	stockService *service.StockQueryService
	metrics      *metrics.StockMetrics
}

func NewStockGRPCHandler(stockService *service.StockQueryService, m *metrics.StockMetrics) *StockGRPCHandler {
	return &StockGRPCHandler{stockService: stockService, metrics: m}
}

func (h *StockGRPCHandler) GetStock(ctx context.Context, req *stockrpc.StockRequest) (*stockrpc.StockResponse, error) {
	if req.ItemNo == "" {
		h.metrics.Call("GetStock", codes.InvalidArgument.String())
		return nil, status.Error(codes.InvalidArgument, "itemNo is required")
	}

	stock, err := h.stockService.GetStock(ctx, req.ItemNo)
	if err != nil {
		st := toStatus(err)
		h.metrics.Call("GetStock", st.Code().String())
		return nil, st.Err()
	}

	h.metrics.Call("GetStock", codes.OK.String())
	return stockResponse(req.ItemNo, stock.Quantity), nil
}

// GetStocks answers a whole basket with one ledger aggregation. The response
// carries one entry per distinct requested item, in request order.
func (h *StockGRPCHandler) GetStocks(ctx context.Context, req *stockrpc.StocksRequest) (*stockrpc.StocksResponse, error) {
	for _, itemNo := range req.ItemNos {
		if itemNo == "" {
			h.metrics.Call("GetStocks", codes.InvalidArgument.String())
			return nil, status.Error(codes.InvalidArgument, "itemNos must not contain empty values")
		}
	}

	quantities, err := h.stockService.GetStocks(ctx, req.ItemNos)
	if err != nil {
		st := toStatus(err)
		h.metrics.Call("GetStocks", st.Code().String())
		return nil, st.Err()
	}

	resp := &stockrpc.StocksResponse{Stocks: make([]*stockrpc.StockResponse, 0, len(quantities))}
	seen := make(map[string]bool, len(quantities))
	for _, itemNo := range req.ItemNos {
		if seen[itemNo] {
			continue
		}
		seen[itemNo] = true
		resp.Stocks = append(resp.Stocks, stockResponse(itemNo, quantities[itemNo]))
	}

	h.metrics.Call("GetStocks", codes.OK.String())
	return resp, nil
}

// stockResponse saturates qty to the int32 range of the wire field so the
// quantity and IsAvailable always agree in sign.
func stockResponse(itemNo string, qty int) *stockrpc.StockResponse {
	return &stockrpc.StockResponse{
		ItemNo:      itemNo,
		Quantity:    int32(max(math.MinInt32, min(qty, math.MaxInt32))),
		IsAvailable: qty > 0,
	}
}

func toStatus(err error) *status.Status {
	if errors.Is(err, service.ErrStoreUnavailable) {
		return status.New(codes.Unavailable, err.Error())
	}
	return status.New(codes.Internal, "internal error")
}
