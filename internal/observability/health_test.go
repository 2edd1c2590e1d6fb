package observability_test

import (
	"LandLedger/internal/observability"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestReadinessRequiresHealthyDependencies(t *testing.T) {
	h := observability.NewHealthChecker()
	h.SetDependency("store", true)
	h.SetDependency("nats", false)
	h.SetReady(true)

	rec := httptest.NewRecorder()
	h.ReadinessHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", rec.Code)
	}
	if got := h.Unhealthy(); len(got) != 1 || got[0] != "nats" {
		t.Errorf("unhealthy: got %v, want [nats]", got)
	}

	h.SetDependency("nats", true)
	rec = httptest.NewRecorder()
	h.ReadinessHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestLivenessAlwaysOK(t *testing.T) {
	h := observability.NewHealthChecker()
	rec := httptest.NewRecorder()
	h.LivenessHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestMetricsUseGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetricsWith(reg)
	m.CoreEventsApplied.WithLabelValues("Transfer").Inc()

	if got := testutil.ToFloat64(m.CoreEventsApplied.WithLabelValues("Transfer")); got != 1 {
		t.Errorf("applied: got %v, want 1", got)
	}

	// A second set on its own registry must not panic.
	observability.NewMetricsWith(prometheus.NewRegistry())
}
