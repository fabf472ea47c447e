// Package metrics holds the bridge's Prometheus collectors and the HTTP
// instrumentation middleware.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "esgbridge",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "esgbridge",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsTotal)
}

// Upstream and token metrics.
var (
	// CacheHitsTotal counts Globus Search responses served from the
	// in-process cache.
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "esgbridge",
			Name:      "upstream_cache_hits_total",
			Help:      "Globus Search responses served from the local response cache",
		},
	)

	// UpstreamRequestDuration observes Globus Search call latency per
	// endpoint ("search" or "token").
	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "esgbridge",
			Name:      "upstream_request_duration_seconds",
			Help:      "Globus Search request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"endpoint"},
	)

	// TokenRefreshesTotal counts watchdog refresh outcomes
	// ("success", "error", "missing_scope").
	TokenRefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "esgbridge",
			Name:      "token_refreshes_total",
			Help:      "Globus token refresh attempts by outcome",
		},
		[]string{"outcome"},
	)
)

var bridgeMetricsRegistered bool

// RegisterBridgeMetrics registers the upstream and token collectors. Must
// be called once from main.
func RegisterBridgeMetrics() {
	if bridgeMetricsRegistered {
		return
	}
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(UpstreamRequestDuration)
	prometheus.MustRegister(TokenRefreshesTotal)
	bridgeMetricsRegistered = true
}

// Middleware records HTTP request duration and count.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(ww.status)

			// chi route patterns keep the label cardinality bounded.
			path := chi.RouteContext(r.Context()).RoutePattern()
			if path == "" {
				path = "unknown"
			}

			httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		})
	}
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(b)
}
