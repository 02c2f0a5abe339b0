package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/rl1809/checkout-choreography/internal/adapter/handler"
	"github.com/rl1809/checkout-choreography/internal/adapter/handler/stockrpc"
	"github.com/rl1809/checkout-choreography/internal/adapter/storage"
	"github.com/rl1809/checkout-choreography/internal/config"
	"github.com/rl1809/checkout-choreography/internal/core/service"
	"github.com/rl1809/checkout-choreography/internal/metrics"
	"github.com/rl1809/checkout-choreography/internal/telemetry"
)

const serviceName = "inventory-api"

func main() {
	log := telemetry.NewLogger(serviceName)
	cfg := config.LoadInventory()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, serviceName)
	if err != nil {
		log.Error("failed to set up tracing", "err", err)
		os.Exit(1)
	}

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Error("failed to open mysql", "err", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to ping mysql", "err", err)
		os.Exit(1)
	}
	log.Info("connected to mysql")

	stockService := service.NewStockQueryService(storage.NewMySQLAdapter(db), log)

	// gRPC stock service
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	stockrpc.RegisterStockServiceServer(grpcServer,
		handler.NewStockGRPCHandler(stockService, metrics.NewStockMetrics(prometheus.DefaultRegisterer)))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error("failed to listen", "addr", cfg.GRPCAddr, "err", err)
		os.Exit(1)
	}

	go func() {
		log.Info("gRPC server listening", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("gRPC server error", "err", err)
		}
	}()

	// HTTP ledger API
	httpServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: handler.NewRouter(
			metrics.NewHTTPMetrics(prometheus.DefaultRegisterer, "inventory"),
			handler.NewInventoryHandler(stockService, log),
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	httpServer.Shutdown(shutdownCtx)
	log.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	log.Info("gRPC server stopped")

	db.Close()
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Warn("tracer shutdown failed", "err", err)
	}
	log.Info("connections closed")
}
