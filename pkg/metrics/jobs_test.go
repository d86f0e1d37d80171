package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestJobMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobMetrics(reg)

	m.IncSuccess("ledger_sync")
	m.IncSuccess("ledger_sync")
	m.IncFailure("ledger_sync")
	m.ObserveDuration("ledger_sync", 120*time.Millisecond)

	if got := testutil.ToFloat64(m.success.WithLabelValues("ledger_sync")); got != 2 {
		t.Fatalf("unexpected success count: %v", got)
	}
	if got := testutil.ToFloat64(m.failure.WithLabelValues("ledger_sync")); got != 1 {
		t.Fatalf("unexpected failure count: %v", got)
	}
}

func TestJobMetricsNilSafe(t *testing.T) {
	var m *JobMetrics
	m.IncSuccess("x")
	m.IncFailure("x")
	m.ObserveDuration("x", time.Second)

	empty := NewJobMetrics(nil)
	empty.IncSuccess("x")
}

func TestNormalizeLabel(t *testing.T) {
	if normalizeLabel("") != "unknown" {
		t.Fatal("empty job label should normalize to unknown")
	}
	if normalizeLabel("ledger_sync") != "ledger_sync" {
		t.Fatal("non-empty labels pass through")
	}
}
