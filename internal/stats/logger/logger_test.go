package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cratekit/crate/internal/stats"
)

func TestCollector_LogsMetrics(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := New(zap.New(core))

	c.IncCounter(stats.MetricJobs, 1)
	c.SetGauge(stats.MetricRatio, 0.25)
	c.ObserveHistogram(stats.MetricJobDuration, 0.1)

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("got %d log entries, want 3", len(entries))
	}
	wantMsg := []string{"counter", "gauge", "histogram"}
	for i, e := range entries {
		if e.Message != wantMsg[i] {
			t.Errorf("entry %d message = %q, want %q", i, e.Message, wantMsg[i])
		}
		if e.LoggerName != "stats" {
			t.Errorf("entry %d logger = %q, want %q", i, e.LoggerName, "stats")
		}
	}
	if got := entries[0].ContextMap()["metric"]; got != stats.MetricJobs {
		t.Errorf("metric field = %v, want %q", got, stats.MetricJobs)
	}
}

func TestNew_NilLogger(t *testing.T) {
	c := New(nil)
	c.IncCounter(stats.MetricJobs, 1)
}
