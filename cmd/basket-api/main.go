package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/checkout-choreography/internal/adapter/handler"
	"github.com/rl1809/checkout-choreography/internal/adapter/messaging"
	"github.com/rl1809/checkout-choreography/internal/adapter/stockclient"
	"github.com/rl1809/checkout-choreography/internal/adapter/storage"
	"github.com/rl1809/checkout-choreography/internal/config"
	"github.com/rl1809/checkout-choreography/internal/core/service"
	"github.com/rl1809/checkout-choreography/internal/metrics"
	"github.com/rl1809/checkout-choreography/internal/telemetry"
)

const serviceName = "basket-api"

func main() {
	log := telemetry.NewLogger(serviceName)
	cfg := config.LoadBasket()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, serviceName)
	if err != nil {
		log.Error("failed to set up tracing", "err", err)
		os.Exit(1)
	}

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect redis", "addr", cfg.RedisAddr, "err", err)
		os.Exit(1)
	}
	log.Info("connected to redis")

	// Stock service client
	conn, err := stockclient.Dial(cfg.StockServiceAddr)
	if err != nil {
		log.Error("failed to create stock client", "err", err)
		os.Exit(1)
	}
	stock := stockclient.NewStockClient(conn, cfg.StockRPCTimeout)

	// Kafka publisher
	publisher := messaging.NewCheckoutPublisher(messaging.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), log)

	redisAdapter := storage.NewRedisAdapter(rdb)
	basketService := service.NewBasketService(redisAdapter, stock)
	checkoutService := service.NewCheckoutService(
		redisAdapter,
		redisAdapter,
		stock,
		publisher,
		metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
		log,
	)

	httpServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: handler.NewRouter(
			metrics.NewHTTPMetrics(prometheus.DefaultRegisterer, "basket"),
			handler.NewBasketHandler(basketService, checkoutService, log),
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

	if err := publisher.Close(); err != nil {
		log.Warn("kafka writer close failed", "err", err)
	}
	conn.Close()
	rdb.Close()
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Warn("tracer shutdown failed", "err", err)
	}
	log.Info("connections closed")
}
