package progress

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	samples []Sample
}

func (r *recorder) Observe(s Sample) {
	r.mu.Lock()
	r.samples = append(r.samples, s)
	r.mu.Unlock()
}

func (r *recorder) all() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sample(nil), r.samples...)
}

// fakeClock advances by step on every call.
func fakeClock(step time.Duration) func() time.Time {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func TestTracker_FinalSampleEqualsTotal(t *testing.T) {
	rec := &recorder{}
	data := bytes.Repeat([]byte("p"), 1<<20)

	tr := New(int64(len(data)), rec, WithThreshold(64<<10), WithClock(fakeClock(time.Millisecond)))
	if _, err := io.Copy(io.Discard, tr.Reader(bytes.NewReader(data))); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	tr.Close()

	samples := rec.all()
	if len(samples) < 2 {
		t.Fatalf("got %d samples, want several", len(samples))
	}
	last := samples[len(samples)-1]
	if !last.Final {
		t.Error("last sample is not marked final")
	}
	if last.Bytes != int64(len(data)) {
		t.Errorf("final Bytes = %d, want %d", last.Bytes, len(data))
	}
	if frac, ok := last.Fraction(); !ok || frac != 1 {
		t.Errorf("final Fraction() = %v, %v, want 1, true", frac, ok)
	}
}

func TestTracker_Monotonic(t *testing.T) {
	rec := &recorder{}
	tr := New(-1, rec, WithThreshold(1), WithQueueSize(4))

	w := tr.Writer(io.Discard)
	for i := 0; i < 500; i++ {
		if _, err := w.Write([]byte("abc")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	tr.Close()

	samples := rec.all()
	for i := 1; i < len(samples); i++ {
		if samples[i].Bytes < samples[i-1].Bytes {
			t.Fatalf("sample %d Bytes = %d < previous %d", i, samples[i].Bytes, samples[i-1].Bytes)
		}
	}
	if got := samples[len(samples)-1].Bytes; got != 1500 {
		t.Errorf("final Bytes = %d, want 1500", got)
	}
	if _, ok := samples[0].Fraction(); ok {
		t.Error("Fraction() ok = true with unknown total")
	}
}

func TestTracker_DropsOldestWhenObserverIsSlow(t *testing.T) {
	release := make(chan struct{})
	rec := &recorder{}
	slow := ObserverFunc(func(s Sample) {
		<-release
		rec.Observe(s)
	})

	tr := New(100, slow, WithThreshold(1), WithQueueSize(2))
	for i := 0; i < 100; i++ {
		tr.Add(1)
	}
	if tr.Dropped() == 0 {
		t.Error("Dropped() = 0, want samples dropped while the observer is blocked")
	}

	close(release)
	tr.Close()

	samples := rec.all()
	last := samples[len(samples)-1]
	if !last.Final || last.Bytes != 100 {
		t.Errorf("last sample = %+v, want final with 100 bytes", last)
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].Bytes < samples[i-1].Bytes {
			t.Fatalf("sample %d out of order: %d after %d", i, samples[i].Bytes, samples[i-1].Bytes)
		}
	}
}

func TestTracker_IntervalGatesSamples(t *testing.T) {
	rec := &recorder{}
	// The clock never moves, so only the threshold can trigger a sample.
	frozen := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := New(1000, rec, WithThreshold(1000), WithClock(func() time.Time { return frozen }))
	for i := 0; i < 999; i++ {
		tr.Add(1)
	}
	tr.Close()

	samples := rec.all()
	if len(samples) != 1 || !samples[0].Final {
		t.Errorf("got %d samples, want only the final one", len(samples))
	}
}

func TestTracker_CloseTwice(t *testing.T) {
	rec := &recorder{}
	tr := New(0, rec)
	tr.Close()
	tr.Close()

	if n := len(rec.all()); n != 1 {
		t.Errorf("got %d samples, want 1", n)
	}
}

func TestSample_Rate(t *testing.T) {
	s := Sample{Bytes: 2048, Elapsed: 2 * time.Second}
	if got := s.Rate(); got != 1024 {
		t.Errorf("Rate() = %v, want 1024", got)
	}
	if got := (Sample{Bytes: 10}).Rate(); got != 0 {
		t.Errorf("Rate() with zero elapsed = %v, want 0", got)
	}
}

func TestFormat(t *testing.T) {
	s := Sample{Bytes: 3 << 20, Total: 10 << 20, Elapsed: time.Second}
	got := Format("Archive", s)
	want := "[Archive] 3.0 MiB / 10 MiB (30.0%) 3.0 MiB/s"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}

	got = Format("Extract", Sample{Bytes: 1024, Total: -1, Elapsed: time.Second})
	if strings.Contains(got, "%") {
		t.Errorf("Format() = %q, want no percentage for unknown total", got)
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "X", true)
	p.Observe(Sample{Bytes: 1, Total: 2, Elapsed: time.Second})
	p.Observe(Sample{Bytes: 2, Total: 2, Elapsed: time.Second, Final: true})

	out := buf.String()
	if strings.Count(out, "\r") != 2 {
		t.Errorf("output %q, want two carriage returns", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Errorf("output %q, want trailing newline after final sample", out)
	}

	buf.Reset()
	p = NewPrinter(&buf, "X", false)
	p.Observe(Sample{Bytes: 1, Total: 2, Elapsed: time.Second})
	if strings.Contains(buf.String(), "\r") {
		t.Errorf("output %q, want no carriage return without redraw", buf.String())
	}
}
