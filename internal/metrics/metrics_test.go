package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckout_CountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCheckout(reg)

	c.ObserveCheckout("success", 20*time.Millisecond)
	c.ObserveCheckout("success", 30*time.Millisecond)
	c.ObserveCheckout("empty_cart", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.total.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.total.WithLabelValues("empty_cart")))
}

func TestHandler_ExposesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewServerMetrics(reg)
	s.Observe("/api/orders/{id}", http.StatusOK, 5*time.Millisecond)

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `marketplace_http_requests_total{route="/api/orders/{id}",status="200"} 1`)
}
