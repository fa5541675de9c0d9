package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_CountsByRouteAndStatus(t *testing.T) {
	t.Parallel()

	m := NewServerMetrics("test", nil)
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/items/:id", func(c echo.Context) error {
		if c.Param("id") == "0" {
			return echo.NewHTTPError(http.StatusNotFound, "missing")
		}
		return c.NoContent(http.StatusOK)
	})

	for _, id := range []string{"1", "2", "0"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Requests.WithLabelValues("/items/:id", "GET", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Requests.WithLabelValues("/items/:id", "GET", "404")))
}

func TestCheckoutCounters_Exposed(t *testing.T) {
	t.Parallel()

	m := NewServerMetrics("test", nil)
	m.ObserveCheckout("committed")
	m.ObserveCheckout("committed")
	m.ObserveCheckout("insufficient_stock")
	m.ObserveCheckoutRetry()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.CheckoutOutcomes.WithLabelValues("committed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CheckoutRetries))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "ecom_test_checkout_total"))
}
