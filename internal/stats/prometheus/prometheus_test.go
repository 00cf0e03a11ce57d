package prometheus

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/cratekit/crate/internal/stats"
)

func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	t.Fatalf("metric %s not found in registry", name)
	return nil
}

func TestNew_DefaultRegistry(t *testing.T) {
	c := New(nil)
	if c.registry == nil {
		t.Error("registry should not be nil")
	}
	if c.gatherer == nil {
		t.Error("default registry should be usable as a gatherer")
	}
}

func TestCollector_IncCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.IncCounter(stats.MetricBytesIn, 5)
	c.IncCounter(stats.MetricBytesIn, 3)

	f := gather(t, reg, stats.MetricBytesIn)
	if val := f.GetMetric()[0].GetCounter().GetValue(); val != 8 {
		t.Errorf("counter value = %v, want 8", val)
	}
	if f.GetHelp() != stats.Help(stats.MetricBytesIn) {
		t.Errorf("help = %q, want %q", f.GetHelp(), stats.Help(stats.MetricBytesIn))
	}
}

func TestCollector_SetGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.SetGauge(stats.MetricRatio, 0.42)

	f := gather(t, reg, stats.MetricRatio)
	if val := f.GetMetric()[0].GetGauge().GetValue(); val != 0.42 {
		t.Errorf("gauge value = %v, want 0.42", val)
	}
}

func TestCollector_ObserveHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveHistogram(stats.MetricJobDuration, 0.5)
	c.ObserveHistogram(stats.MetricJobDuration, 1.5)
	c.ObserveHistogram(stats.MetricJobDuration, 2.5)

	h := gather(t, reg, stats.MetricJobDuration).GetMetric()[0].GetHistogram()
	if count := h.GetSampleCount(); count != 3 {
		t.Errorf("histogram count = %v, want 3", count)
	}
	if got, want := len(h.GetBucket()), len(buckets(stats.MetricJobDuration)); got != want {
		t.Errorf("bucket count = %d, want %d", got, want)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncCounter(stats.MetricJobs, 1)
				c.SetGauge(stats.MetricEntries, float64(j))
				c.ObserveHistogram(stats.MetricJobDuration, float64(j))
			}
		}()
	}
	wg.Wait()

	if val := gather(t, reg, stats.MetricJobs).GetMetric()[0].GetCounter().GetValue(); val != 1000 {
		t.Errorf("counter value = %v, want 1000", val)
	}
	if count := gather(t, reg, stats.MetricJobDuration).GetMetric()[0].GetHistogram().GetSampleCount(); count != 1000 {
		t.Errorf("histogram count = %v, want 1000", count)
	}
}

func TestCollector_AlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	existing := prometheus.NewCounter(prometheus.CounterOpts{
		Name: stats.MetricJobs,
		Help: stats.Help(stats.MetricJobs),
	})
	reg.MustRegister(existing)
	existing.Add(100)

	c := New(reg)
	c.IncCounter(stats.MetricJobs, 5)

	if val := gather(t, reg, stats.MetricJobs).GetMetric()[0].GetCounter().GetValue(); val != 105 {
		t.Errorf("counter value = %v, want 105", val)
	}
}

func TestCollector_WriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)
	c.IncCounter(stats.MetricJobs, 2)

	path := filepath.Join(t.TempDir(), "crate.prom")
	if err := c.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), stats.MetricJobs+" 2") {
		t.Errorf("textfile missing %s sample:\n%s", stats.MetricJobs, data)
	}
}

type registererOnly struct{ prometheus.Registerer }

func TestCollector_WriteTextfile_NoGatherer(t *testing.T) {
	c := New(registererOnly{prometheus.NewRegistry()})
	if err := c.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")); err != ErrNoGatherer {
		t.Errorf("WriteTextfile() error = %v, want ErrNoGatherer", err)
	}
}
