package metrics_test

import (
	"testing"
	"time"

	"github.com/mchecker/perfcore/pkg/metrics"
)

func TestTimerRecordsDuration(t *testing.T) {
	metrics.ResetAll()
	m := metrics.GraphLoad
	stop := metrics.Timer(m)
	time.Sleep(time.Millisecond)
	stop()

	if got := m.Count(); got != 1 {
		t.Fatalf("Count() = %d, want 1", got)
	}
	if stats := m.Stats(); stats.TotalMs <= 0 {
		t.Fatalf("TotalMs = %v, want > 0", stats.TotalMs)
	}
}

func TestTimerNoopWhenDisabled(t *testing.T) {
	metrics.ResetAll()
	metrics.SetEnabled(false)
	defer metrics.SetEnabled(true)

	stop := metrics.Timer(metrics.ModelLoad)
	stop()

	if got := metrics.ModelLoad.Count(); got != 0 {
		t.Fatalf("Count() = %d, want 0 while disabled", got)
	}
}

func TestRecordIteration(t *testing.T) {
	metrics.ResetAll()
	metrics.RecordIteration()
	metrics.RecordIteration()
	if metrics.IterationCount != 2 {
		t.Fatalf("IterationCount = %d, want 2", metrics.IterationCount)
	}
}

func TestAllTimingStatsOnlyIncludesRecorded(t *testing.T) {
	metrics.ResetAll()
	metrics.Timer(metrics.MatrixBuild)()

	stats := metrics.AllTimingStats()
	if len(stats) != 1 {
		t.Fatalf("AllTimingStats() returned %d entries, want 1", len(stats))
	}
	if stats[0].Name != "matrix_build" {
		t.Fatalf("stats[0].Name = %q, want matrix_build", stats[0].Name)
	}
}
