package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	c := New()
	c.ObserveQuery("heart_rate", "zu")
	c.ObserveQuery("heart_rate", "zu")
	c.ObserveReading("heart_rate", "fallback")
	c.ObserveTranslation("ok")

	require.Equal(t, 2.0, testutil.ToFloat64(c.queries.WithLabelValues("heart_rate", "zu")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.readings.WithLabelValues("heart_rate", "fallback")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.translations.WithLabelValues("ok")))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "health_queries_total")
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.ObserveQuery("unknown", "en")
	c.ObserveReading("trends", "synthetic")
	c.ObserveTranslation("error")
	require.NotNil(t, c.Handler())
}
