// Package metrics holds the gateway's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTP holds request metrics for the gateway router.
type HTTP struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
	errors   *prometheus.CounterVec
}

// NewHTTP creates the gateway collectors and registers them on reg.
func NewHTTP(reg prometheus.Registerer) *HTTP {
	m := &HTTP{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "geo38",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "geo38",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "geo38",
				Subsystem: "http",
				Name:      "command_errors_total",
				Help:      "Failed gateway commands by error kind",
			},
			[]string{"kind"},
		),
	}
	reg.MustRegister(m.duration, m.total, m.errors)
	return m
}

// CommandError counts a failed command by kind (key_not_found, transport, ...).
func (m *HTTP) CommandError(kind string) {
	m.errors.WithLabelValues(kind).Inc()
}

// CommandErrors exposes the error counter.
func (m *HTTP) CommandErrors() *prometheus.CounterVec { return m.errors }

// Middleware records HTTP request duration and count.
func (m *HTTP) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			status := strconv.Itoa(ww.status)

			// Route pattern keeps key/id values out of the labels.
			var pattern string
			if rc := chi.RouteContext(r.Context()); rc != nil {
				pattern = rc.RoutePattern()
			}
			path := normalizePath(pattern)

			m.duration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
			m.total.WithLabelValues(r.Method, path, status).Inc()
		})
	}
}

func normalizePath(path string) string {
	if path == "" {
		return "unknown"
	}
	return path
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
	return w.ResponseWriter.Write(b) //nolint:wrapcheck // delegating to underlying ResponseWriter
}
