// internal/monitoring/monitoring_test.go
package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/GIVerify/internal/verify"
)

func TestMetricsManager_RecordsCoreEvents(t *testing.T) {
	mm := NewMetricsManager(MetricsConfig{})

	mm.AdapterDone(verify.SourcePrimary, "usable", 3*time.Second)
	mm.AdapterDone(verify.SourceSecondary, "timeout", 60*time.Second)
	mm.Decision(verify.DecisionPrimary)
	mm.CacheLookup(true)
	mm.CacheLookup(false)
	mm.CacheLookup(false)
	mm.QueueDepth(4)
	mm.SessionActive(true)
	mm.RequestDone("success", 5*time.Second)
	mm.HTTPRequest("verify", 200)

	assert.Equal(t, 1.0, testutil.ToFloat64(mm.adapterRuns.WithLabelValues("primary", "usable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.adapterRuns.WithLabelValues("secondary", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.decisions.WithLabelValues("primary")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.cacheLookups.WithLabelValues("true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(mm.cacheLookups.WithLabelValues("false")))
	assert.Equal(t, 4.0, testutil.ToFloat64(mm.queueDepth))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.sessionsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.requestsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.httpRequests.WithLabelValues("verify", "200")))

	mm.SessionActive(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(mm.sessionsActive))
}

func TestMetricsManager_Handler(t *testing.T) {
	mm := NewMetricsManager(MetricsConfig{Namespace: "test", EnableGoMetrics: false})
	mm.QueueDepth(2)

	rec := httptest.NewRecorder()
	mm.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_core_queue_depth 2")
}

func TestMetricsManager_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetricsManager(DefaultMetricsConfig())
		NewMetricsManager(DefaultMetricsConfig())
	})
}

func TestHealthManager(t *testing.T) {
	hm := NewHealthManager("v1.2.3")
	hm.Register("scheduler", func(ctx context.Context) HealthCheckResult {
		return HealthCheckResult{Status: HealthStatusHealthy, Metadata: map[string]interface{}{"queue_length": 0}}
	})

	health := hm.Check(context.Background())
	assert.Equal(t, HealthStatusHealthy, health.Status)
	assert.Equal(t, "v1.2.3", health.Version)
	assert.Contains(t, health.Checks, "scheduler")

	hm.Register("browser", func(ctx context.Context) HealthCheckResult {
		return HealthCheckResult{Status: HealthStatusDegraded, Message: "slow"}
	})
	assert.Equal(t, HealthStatusDegraded, hm.Check(context.Background()).Status)

	hm.Register("scheduler", func(ctx context.Context) HealthCheckResult {
		return HealthCheckResult{Status: HealthStatusUnhealthy, Message: "closed"}
	})

	rec := httptest.NewRecorder()
	hm.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))

	var body SystemHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, HealthStatusUnhealthy, body.Status)
	assert.Equal(t, "closed", body.Checks["scheduler"].Message)
}
