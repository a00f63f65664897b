package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newRouter(t *testing.T) (*chi.Mux, *HTTP) {
	t.Helper()
	m := NewHTTP(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(m.Middleware())
	return r, m
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r, m := newRouter(t)
	r.Get("/v1/{key}/{id}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, id := range []string{"truck1", "truck2"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/fleet/"+id, http.NoBody)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
	}

	if v := testutil.ToFloat64(m.total.WithLabelValues("GET", "/v1/{key}/{id}", "200")); v != 2 {
		t.Errorf("requests_total = %f, want 2", v)
	}
	if n := testutil.CollectAndCount(m.duration); n != 1 {
		t.Errorf("duration series = %d, want 1", n)
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r, m := newRouter(t)
	r.Get("/ok", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/notfound", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/unavailable", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		path   string
		status string
	}{
		{"/ok", "200"},
		{"/notfound", "404"},
		{"/unavailable", "503"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, http.NoBody)
			r.ServeHTTP(httptest.NewRecorder(), req)

			if v := testutil.ToFloat64(m.total.WithLabelValues("GET", tc.path, tc.status)); v != 1 {
				t.Errorf("requests_total{%s,%s} = %f, want 1", tc.path, tc.status, v)
			}
		})
	}
}

func TestCommandError(t *testing.T) {
	m := NewHTTP(prometheus.NewRegistry())
	m.CommandError("key_not_found")
	m.CommandError("key_not_found")
	m.CommandError("transport")

	if v := testutil.ToFloat64(m.errors.WithLabelValues("key_not_found")); v != 2 {
		t.Errorf("key_not_found = %f, want 2", v)
	}
	if v := testutil.ToFloat64(m.errors.WithLabelValues("transport")); v != 1 {
		t.Errorf("transport = %f, want 1", v)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unknown"},
		{"/v1/{key}/{id}", "/v1/{key}/{id}"},
		{"/health", "/health"},
	}
	for _, tc := range tests {
		if got := normalizePath(tc.input); got != tc.expected {
			t.Errorf("normalizePath(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}
