package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRPC("/x", "ok", time.Millisecond)
	m.Reconciled("resolved")
	m.Imported(1, 2, 3)
	m.Replicated(4)
	m.Relocated()
	m.CacheLookup("hit")
	if m.Registry() != nil {
		t.Error("nil metrics should have no registry")
	}
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatalf("failed to read exposition: %v", err)
	}
	return string(body)
}

func TestCounters(t *testing.T) {
	m := New()
	m.Reconciled("resolved")
	m.Reconciled("resolved")
	m.Imported(5, 1, 0)

	body := scrape(t, m)
	for _, want := range []string{
		`pachi_invite_reconciliations_total{status="resolved"} 2`,
		`pachi_import_rows_total{result="inserted"} 5`,
		`pachi_import_rows_total{result="skipped"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in exposition", want)
		}
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.Relocated()

	body := scrape(t, m)
	if !strings.Contains(body, "pachi_household_relocations_total 1") {
		t.Errorf("relocation counter missing from exposition:\n%s", body)
	}
}
