// Package monitoring exposes Prometheus metrics for the service
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)

	UnitCommits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "module_unit_commits_total",
			Help: "Unit commits by outcome",
		},
		[]string{"outcome"},
	)

	BlobUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blob_uploads_total",
			Help: "Blob uploads by outcome",
		},
		[]string{"outcome"},
	)

	BlobUploadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blob_upload_bytes_total",
			Help: "Bytes written to the blob store",
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "edit_sessions_active",
			Help: "Number of open module edit sessions",
		},
	)
)

// Init registers all collectors with the default registry
func Init() {
	prometheus.MustRegister(
		RequestCounter,
		RequestDuration,
		UnitCommits,
		BlobUploads,
		BlobUploadBytes,
		ActiveSessions,
	)
}

// MetricsMiddleware records request counts and durations labelled by chi route pattern
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		RequestCounter.WithLabelValues(r.Method, route, strconv.Itoa(ww.status)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
