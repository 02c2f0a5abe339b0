// Package stockrpc defines the inventory.StockService gRPC contract: its
// messages, service descriptor, client and server registration. Messages
// travel as JSON through the codec registered in this package.
package stockrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName = "inventory.StockService"

	GetStockFullMethodName  = "/" + ServiceName + "/GetStock"
	GetStocksFullMethodName = "/" + ServiceName + "/GetStocks"
)

type StockRequest struct {
	ItemNo string `json:"itemNo"`
}

type StockResponse struct {
	ItemNo      string `json:"itemNo"`
	Quantity    int32  `json:"quantity"`
	IsAvailable bool   `json:"isAvailable"`
}

type StocksRequest struct {
	ItemNos []string `json:"itemNos"`
}

type StocksResponse struct {
	Stocks []*StockResponse `json:"stocks"`
}

type StockServiceClient interface {
	GetStock(ctx context.Context, in *StockRequest, opts ...grpc.CallOption) (*StockResponse, error)
	GetStocks(ctx context.Context, in *StocksRequest, opts ...grpc.CallOption) (*StocksResponse, error)
}

type stockServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewStockServiceClient(cc grpc.ClientConnInterface) StockServiceClient {
	return &stockServiceClient{cc: cc}
}

func (c *stockServiceClient) GetStock(ctx context.Context, in *StockRequest, opts ...grpc.CallOption) (*StockResponse, error) {
	out := new(StockResponse)
	if err := c.cc.Invoke(ctx, GetStockFullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *stockServiceClient) GetStocks(ctx context.Context, in *StocksRequest, opts ...grpc.CallOption) (*StocksResponse, error) {
	out := new(StocksResponse)
	if err := c.cc.Invoke(ctx, GetStocksFullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

type StockServiceServer interface {
	GetStock(context.Context, *StockRequest) (*StockResponse, error)
	GetStocks(context.Context, *StocksRequest) (*StocksResponse, error)
}

// UnimplementedStockServiceServer can be embedded to stay forward compatible.
type UnimplementedStockServiceServer struct{}

func (UnimplementedStockServiceServer) GetStock(context.Context, *StockRequest) (*StockResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetStock not implemented")
}

func (UnimplementedStockServiceServer) GetStocks(context.Context, *StocksRequest) (*StocksResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetStocks not implemented")
}

func RegisterStockServiceServer(s grpc.ServiceRegistrar, srv StockServiceServer) {
	s.RegisterService(&StockServiceDesc, srv)
}

func getStockHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(StockRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StockServiceServer).GetStock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetStockFullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StockServiceServer).GetStock(ctx, req.(*StockRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getStocksHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(StocksRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StockServiceServer).GetStocks(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetStocksFullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StockServiceServer).GetStocks(ctx, req.(*StocksRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var StockServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StockServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStock", Handler: getStockHandler},
		{MethodName: "GetStocks", Handler: getStocksHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "inventory/stock",
}
