package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ecom"

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec

	CheckoutOutcomes *prometheus.CounterVec
	CheckoutRetries  prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewServerMetrics registers collectors on reg; nil means a fresh registry.
func NewServerMetrics(service string, reg *prometheus.Registry) *ServerMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"route", "method", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"route"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "checkout_total",
		Help:      "Checkout invocations by outcome.",
	}, []string{"outcome"})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "checkout_retries_total",
		Help:      "Checkout transactions re-run after a stock race.",
	})

	reg.MustRegister(requests, latency, outcomes, retries)
	return &ServerMetrics{
		Requests:         requests,
		LatencyMS:        latency,
		CheckoutOutcomes: outcomes,
		CheckoutRetries:  retries,
		gatherer:         reg,
	}
}

func (m *ServerMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.Requests.WithLabelValues(route, c.Request().Method, strconv.Itoa(status)).Inc()
			m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
			return err
		}
	}
}

// ObserveCheckout satisfies the checkout package's Recorder.
func (m *ServerMetrics) ObserveCheckout(outcome string) {
	m.CheckoutOutcomes.WithLabelValues(outcome).Inc()
}

func (m *ServerMetrics) ObserveCheckoutRetry() {
	m.CheckoutRetries.Inc()
}

func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
