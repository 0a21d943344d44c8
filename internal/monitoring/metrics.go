// internal/monitoring/metrics.go
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/valpere/GIVerify/internal/verify"
)

// MetricsConfig configuration for metrics
type MetricsConfig struct {
	Namespace       string `yaml:"namespace" json:"namespace"`
	Subsystem       string `yaml:"subsystem" json:"subsystem"`
	Enabled         bool   `yaml:"enabled" json:"enabled"`
	Path            string `yaml:"path" json:"path"`
	EnableGoMetrics bool   `yaml:"enable_go_metrics" json:"enable_go_metrics"`
}

// DefaultMetricsConfig returns the default metrics configuration
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:       "giverify",
		Subsystem:       "core",
		Enabled:         true,
		Path:            "/metrics",
		EnableGoMetrics: true,
	}
}

// MetricsManager owns the Prometheus collectors for the extraction core and
// implements verify.Recorder
type MetricsManager struct {
	registry *prometheus.Registry

	adapterRuns     *prometheus.CounterVec
	adapterDuration *prometheus.HistogramVec
	decisions       *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	queueDepth      prometheus.Gauge
	sessionsActive  prometheus.Gauge
	requestsTotal   *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
}

// NewMetricsManager creates collectors on a private registry
func NewMetricsManager(config MetricsConfig) *MetricsManager {
	defaults := DefaultMetricsConfig()
	if config.Namespace == "" {
		config.Namespace = defaults.Namespace
	}
	if config.Subsystem == "" {
		config.Subsystem = defaults.Subsystem
	}

	registry := prometheus.NewRegistry()
	if config.EnableGoMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	factory := promauto.With(registry)
	ns, sub := config.Namespace, config.Subsystem

	// Extraction sessions run for tens of seconds; the default buckets top out at 10s.
	sessionBuckets := []float64{1, 2.5, 5, 10, 15, 30, 45, 60, 90, 120, 180}

	return &MetricsManager{
		registry: registry,
		adapterRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "adapter_runs_total",
			Help:      "Extraction adapter runs by source and outcome",
		}, []string{"source", "outcome"}),
		adapterDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "adapter_duration_seconds",
			Help:      "Time spent in one extraction adapter run",
			Buckets:   sessionBuckets,
		}, []string{"source"}),
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "orchestrator_decisions_total",
			Help:      "How final results were chosen between the two sources",
		}, []string{"decision"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by hit or miss",
		}, []string{"hit"}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "queue_depth",
			Help:      "Requests waiting behind the active extraction",
		}),
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "sessions_active",
			Help:      "Extractions currently running (0 or 1)",
		}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "requests_total",
			Help:      "Completed queued requests by status",
		}, []string{"status"}),
		requestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "request_latency_seconds",
			Help:      "Time from enqueue to result for queued requests",
			Buckets:   sessionBuckets,
		}, []string{"status"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served by route and status code",
		}, []string{"route", "code"}),
	}
}

// AdapterDone records one adapter run
func (mm *MetricsManager) AdapterDone(source verify.Source, outcome string, duration time.Duration) {
	mm.adapterRuns.WithLabelValues(string(source), outcome).Inc()
	mm.adapterDuration.WithLabelValues(string(source)).Observe(duration.Seconds())
}

// Decision records the orchestrator's precedence decision
func (mm *MetricsManager) Decision(decision verify.Decision) {
	mm.decisions.WithLabelValues(string(decision)).Inc()
}

// CacheLookup records a cache hit or miss
func (mm *MetricsManager) CacheLookup(hit bool) {
	mm.cacheLookups.WithLabelValues(strconv.FormatBool(hit)).Inc()
}

// QueueDepth sets the queue gauge
func (mm *MetricsManager) QueueDepth(depth int) {
	mm.queueDepth.Set(float64(depth))
}

// SessionActive flips the active-session gauge
func (mm *MetricsManager) SessionActive(active bool) {
	if active {
		mm.sessionsActive.Set(1)
		return
	}
	mm.sessionsActive.Set(0)
}

// RequestDone records a completed queued request
func (mm *MetricsManager) RequestDone(status string, duration time.Duration) {
	mm.requestsTotal.WithLabelValues(status).Inc()
	mm.requestLatency.WithLabelValues(status).Observe(duration.Seconds())
}

// HTTPRequest records one served HTTP request
func (mm *MetricsManager) HTTPRequest(route string, code int) {
	mm.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Registry returns the registry backing the collectors
func (mm *MetricsManager) Registry() *prometheus.Registry {
	return mm.registry
}

// Handler serves the registry in the Prometheus exposition format
func (mm *MetricsManager) Handler() http.Handler {
	return promhttp.HandlerFor(mm.registry, promhttp.HandlerOpts{})
}

var _ verify.Recorder = (*MetricsManager)(nil)
