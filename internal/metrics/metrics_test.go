package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/swarmtrade/sim-engine/internal/metrics"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/agents/{agentID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	before := testutil.ToFloat64(
		metrics.HTTPRequestsTotal.WithLabelValues("GET", "/agents/{agentID}", "200"))

	// Distinct ids must collapse into one pattern label.
	for _, id := range []string{"a1", "b2", "c3"} {
		req := httptest.NewRequest(http.MethodGet, "/agents/"+id, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	}

	got := testutil.ToFloat64(
		metrics.HTTPRequestsTotal.WithLabelValues("GET", "/agents/{agentID}", "200"))
	if got-before != 3 {
		t.Errorf("pattern label count grew by %v, want 3", got-before)
	}
	for _, id := range []string{"a1", "b2", "c3"} {
		raw := testutil.ToFloat64(
			metrics.HTTPRequestsTotal.WithLabelValues("GET", "/agents/"+id, "200"))
		if raw != 0 {
			t.Errorf("raw path /agents/%s minted its own label", id)
		}
	}
}

func TestMiddleware_CapturesStatus(t *testing.T) {
	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(
		metrics.HTTPRequestsTotal.WithLabelValues("GET", "/missing", "404"))

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	got := testutil.ToFloat64(
		metrics.HTTPRequestsTotal.WithLabelValues("GET", "/missing", "404"))
	if got-before != 1 {
		t.Errorf("404 count grew by %v, want 1", got-before)
	}
}
