package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes Prometheus metrics for inbound HTTP requests and audit
// runs.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	auditTotal           *prometheus.CounterVec
	auditDuration        *prometheus.HistogramVec
	recommendationsTotal *prometheus.CounterVec
}

// NewCollector constructs a collector with default histograms/counters.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "adscope",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "adscope",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	auditTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "adscope",
		Subsystem: "audit",
		Name:      "runs_total",
		Help:      "Total number of audit runs by platform and outcome.",
	}, []string{"platform", "success"})

	auditDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "adscope",
		Subsystem: "audit",
		Name:      "duration_seconds",
		Help:      "Duration distribution of audit runs.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"platform"})

	recommendationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "adscope",
		Subsystem: "audit",
		Name:      "recommendations_total",
		Help:      "Total recommendations produced, by severity.",
	}, []string{"severity"})

	for _, c := range []prometheus.Collector{
		requestDuration, requestTotal, auditTotal, auditDuration, recommendationsTotal,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:             registry,
		requestDuration:      requestDuration,
		requestTotal:         requestTotal,
		auditTotal:           auditTotal,
		auditDuration:        auditDuration,
		recommendationsTotal: recommendationsTotal,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordAudit records one completed audit run.
func (c *Collector) RecordAudit(platform string, success bool, duration time.Duration) {
	c.auditTotal.WithLabelValues(platform, strconv.FormatBool(success)).Inc()
	c.auditDuration.WithLabelValues(platform).Observe(duration.Seconds())
}

// RecordRecommendations counts produced recommendations by severity.
func (c *Collector) RecordRecommendations(severityCounts map[string]int) {
	for severity, n := range severityCounts {
		c.recommendationsTotal.WithLabelValues(severity).Add(float64(n))
	}
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
