package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process-wide instrumentation for the storefront API.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	PaymentCallbacksTotal *prometheus.CounterVec
	OrderSettlementsTotal *prometheus.CounterVec
	OrdersCreatedTotal    *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omegastore",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "omegastore",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		PaymentCallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omegastore",
			Name:      "payment_callbacks_total",
			Help:      "Gateway callback deliveries by leg and outcome.",
		}, []string{"leg", "outcome"}),
		OrderSettlementsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omegastore",
			Name:      "order_settlements_total",
			Help:      "Order settlement attempts by result.",
		}, []string{"result"}),
		OrdersCreatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omegastore",
			Name:      "orders_created_total",
			Help:      "Orders created by payment method.",
		}, []string{"method"}),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.PaymentCallbacksTotal,
		m.OrderSettlementsTotal,
		m.OrdersCreatedTotal,
	)
	return m
}

// Handler serves the /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records a completed HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
