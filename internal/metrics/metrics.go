// Package metrics holds the Prometheus collectors of the three services.
// Every constructor takes a Registerer so tests can use a private registry.
// All methods are safe to call on a nil receiver.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shop"

type CheckoutMetrics struct {
	Outcomes *prometheus.CounterVec
	Duration prometheus.Histogram
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	m := &CheckoutMetrics{
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "basket",
			Name:      "checkout_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "basket",
			Name:      "checkout_duration_seconds",
			Help:      "End to end checkout latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.Outcomes, m.Duration)
	return m
}

func (m *CheckoutMetrics) Observe(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(outcome).Inc()
	m.Duration.Observe(elapsed.Seconds())
}

type ConsumerMetrics struct {
	Messages     *prometheus.CounterVec
	Redeliveries prometheus.Counter
}

func NewConsumerMetrics(reg prometheus.Registerer) *ConsumerMetrics {
	m := &ConsumerMetrics{
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ordering",
			Name:      "checkout_messages_total",
			Help:      "Checkout messages by final result.",
		}, []string{"result"}),
		Redeliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ordering",
			Name:      "checkout_redeliveries_total",
			Help:      "Times a checkout message was handed to the handler again after a failure.",
		}),
	}
	reg.MustRegister(m.Messages, m.Redeliveries)
	return m
}

func (m *ConsumerMetrics) Result(result string) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(result).Inc()
}

func (m *ConsumerMetrics) Redelivered() {
	if m == nil {
		return
	}
	m.Redeliveries.Inc()
}

type DispatchMetrics struct {
	Failures *prometheus.CounterVec
}

func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	m := &DispatchMetrics{
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ordering",
			Name:      "domain_event_handler_failures_total",
			Help:      "Domain event handler failures by event type.",
		}, []string{"event_type"}),
	}
	reg.MustRegister(m.Failures)
	return m
}

func (m *DispatchMetrics) Failed(eventType string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(eventType).Inc()
}

type StockMetrics struct {
	Calls *prometheus.CounterVec
}

func NewStockMetrics(reg prometheus.Registerer) *StockMetrics {
	m := &StockMetrics{
		Calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "stock_rpc_total",
			Help:      "Stock RPC calls by method and status.",
		}, []string{"method", "status"}),
	}
	reg.MustRegister(m.Calls)
	return m
}

func (m *StockMetrics) Call(method, status string) {
	if m == nil {
		return
	}
	m.Calls.WithLabelValues(method, status).Inc()
}

type HTTPMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer, service string) *HTTPMetrics {
	m := &HTTPMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: service,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: service,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
	}
	reg.MustRegister(m.Requests, m.LatencyMS)
	return m
}

// Middleware records one sample per request, labelled by chi route pattern.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.Requests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
		m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
