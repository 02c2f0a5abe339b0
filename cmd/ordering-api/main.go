package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rl1809/checkout-choreography/internal/adapter/email"
	"github.com/rl1809/checkout-choreography/internal/adapter/handler"
	"github.com/rl1809/checkout-choreography/internal/adapter/messaging"
	"github.com/rl1809/checkout-choreography/internal/adapter/storage"
	"github.com/rl1809/checkout-choreography/internal/config"
	"github.com/rl1809/checkout-choreography/internal/core/service"
	"github.com/rl1809/checkout-choreography/internal/metrics"
	"github.com/rl1809/checkout-choreography/internal/port"
	"github.com/rl1809/checkout-choreography/internal/telemetry"
)

const serviceName = "ordering-api"

func main() {
	log := telemetry.NewLogger(serviceName)
	cfg := config.LoadOrdering()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, serviceName)
	if err != nil {
		log.Error("failed to set up tracing", "err", err)
		os.Exit(1)
	}

	// Initialize Postgres
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("failed to create postgres pool", "err", err)
		os.Exit(1)
	}
	if err := pool.Ping(ctx); err != nil {
		log.Error("failed to ping postgres", "err", err)
		os.Exit(1)
	}
	log.Info("connected to postgres")

	dispatcher := service.NewDomainEventDispatcher(metrics.NewDispatchMetrics(prometheus.DefaultRegisterer), log)
	service.NewNotificationHandler(newEmailSender(cfg.SMTP, log), log).Register(dispatcher)

	orderService := service.NewOrderService(storage.NewPostgresAdapter(pool), dispatcher, log)
	orderConsumer := service.NewOrderCreationConsumer(orderService, log)

	// Checkout consumers share one group; the dead-letter writer is shared too.
	deadLetter := messaging.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic+messaging.DeadLetterSuffix)
	consumerMetrics := metrics.NewConsumerMetrics(prometheus.DefaultRegisterer)

	var wg sync.WaitGroup
	for i := 0; i < cfg.ConsumerWorkers; i++ {
		consumer := messaging.NewCheckoutConsumer(
			messaging.NewReader(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.ConsumerGroup),
			deadLetter,
			orderConsumer,
			messaging.ConsumerConfig{MaxAttempts: cfg.ConsumerMaxAttempts, IsPermanent: service.IsPermanent},
			consumerMetrics,
			log.With("worker", i),
		)

		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := consumer.Run(ctx); err != nil {
				log.Error("checkout consumer stopped", "worker", id, "err", err)
			}
		}(i)
	}
	log.Info("started checkout consumers", "workers", cfg.ConsumerWorkers, "topic", cfg.Kafka.Topic)

	httpServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: handler.NewRouter(
			metrics.NewHTTPMetrics(prometheus.DefaultRegisterer, "ordering"),
			handler.NewOrderHandler(orderService, log),
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

	wg.Wait()
	log.Info("consumers stopped")

	deadLetter.Close()
	pool.Close()
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Warn("tracer shutdown failed", "err", err)
	}
	log.Info("connections closed")
}

func newEmailSender(cfg email.SMTPConfig, log *slog.Logger) port.EmailSender {
	if cfg.Host == "" {
		log.Warn("SMTP_HOST not set, confirmation emails will only be logged")
		return email.NewLogSender(log)
	}
	log.Info("smtp sender configured", "smtp", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))
	return email.NewSMTPSender(cfg, log)
}
