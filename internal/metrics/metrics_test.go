package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m := New()

	m.ObserveRPC("/bizlens.v1.AnalyticsService/GetDashboard", "ok", 20*time.Millisecond)
	m.ObserveRPC("/bizlens.v1.AnalyticsService/GetDashboard", "ok", 30*time.Millisecond)
	m.AnalyzerFailed("forecast")
	m.FetchFailed("bills")
	m.Ingested("bill", 8, 2)
	m.SetHealthScore(72)
	m.SetAnomalies(map[string]int{"warning": 2, "critical": 1})
	m.SetAnomalies(map[string]int{"info": 1})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.rpcRequests.WithLabelValues("/bizlens.v1.AnalyticsService/GetDashboard", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyzerFailures.WithLabelValues("forecast")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchFailures.WithLabelValues("bills")))
	assert.Equal(t, 8.0, testutil.ToFloat64(m.ingestedRecords.WithLabelValues("bill", "accepted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ingestedRecords.WithLabelValues("bill", "skipped")))
	assert.Equal(t, 72.0, testutil.ToFloat64(m.healthScore))
	assert.Equal(t, 1, testutil.CollectAndCount(m.anomalies), "old severities are reset")
}

func TestMetricsHandler(t *testing.T) {
	m := New()
	m.SetHealthScore(55)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "bizlens_health_score 55"))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRPC("p", "ok", time.Second)
	m.ObserveAnalyzer("forecast", time.Second)
	m.AnalyzerFailed("forecast")
	m.FetchFailed("bills")
	m.Ingested("bill", 1, 0)
	m.SetHealthScore(1)
	m.SetAnomalies(nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}
