// Package progress counts bytes moving through a stream and reports samples
// to an observer without slowing the stream down.
package progress

import (
	"io"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultInterval is the minimum time between two samples.
	DefaultInterval = 100 * time.Millisecond
	// DefaultThreshold is the byte count that forces a sample regardless of
	// the interval.
	DefaultThreshold int64 = 4 << 20
	// DefaultQueueSize bounds the samples waiting for the observer.
	DefaultQueueSize = 16
)

// Sample is a point-in-time observation of one job.
type Sample struct {
	Bytes   int64         // Bytes transferred so far.
	Total   int64         // Expected bytes; negative when unknown.
	Elapsed time.Duration // Time since the tracker started.
	Final   bool          // Set on the last sample of a job.
}

// Fraction returns the completed fraction in [0, 1], or false when the total
// is unknown.
func (s Sample) Fraction() (float64, bool) {
	switch {
	case s.Total < 0:
		return 0, false
	case s.Total == 0:
		return 1, true
	}
	f := float64(s.Bytes) / float64(s.Total)
	if f > 1 {
		f = 1
	}
	return f, true
}

// Rate returns the average transfer rate in bytes per second.
func (s Sample) Rate() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Bytes) / s.Elapsed.Seconds()
}

// Observer receives samples. Observe is called from a single goroutine.
type Observer interface {
	Observe(Sample)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(Sample)

// Observe calls f(s).
func (f ObserverFunc) Observe(s Sample) { f(s) }

// Option configures a Tracker.
type Option func(*Tracker)

// WithInterval sets the minimum time between samples.
func WithInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithThreshold sets the byte count that forces a sample.
func WithThreshold(n int64) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.threshold = n
		}
	}
}

// WithQueueSize sets how many samples may wait for the observer.
func WithQueueSize(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.queueSize = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// Tracker counts bytes on behalf of a single producer and hands samples to
// an observer goroutine through a bounded queue. When the queue is full the
// oldest pending sample is discarded, so the producer never blocks.
type Tracker struct {
	total     int64
	interval  time.Duration
	threshold int64
	queueSize int
	now       func() time.Time

	bytes   atomic.Int64
	dropped atomic.Int64

	start     time.Time
	lastAt    time.Time
	lastBytes int64

	queue     chan Sample
	done      chan struct{}
	closeOnce sync.Once
}

// New starts a tracker reporting to obs. A negative total marks the
// expected size as unknown.
func New(total int64, obs Observer, opts ...Option) *Tracker {
	t := &Tracker{
		total:     total,
		interval:  DefaultInterval,
		threshold: DefaultThreshold,
		queueSize: DefaultQueueSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}

	t.start = t.now()
	t.lastAt = t.start
	t.queue = make(chan Sample, t.queueSize)
	t.done = make(chan struct{})

	go func() {
		defer close(t.done)
		for s := range t.queue {
			obs.Observe(s)
		}
	}()
	return t
}

// Reader returns r counting every byte read through it.
func (t *Tracker) Reader(r io.Reader) io.Reader {
	return &countingReader{r: r, t: t}
}

// Writer returns w counting every byte written through it.
func (t *Tracker) Writer(w io.Writer) io.Writer {
	return &countingWriter{w: w, t: t}
}

// Add records n transferred bytes and emits a sample if the interval has
// elapsed or the threshold has been crossed since the last one.
func (t *Tracker) Add(n int64) {
	if n <= 0 {
		return
	}
	b := t.bytes.Add(n)

	now := t.now()
	if b-t.lastBytes < t.threshold && now.Sub(t.lastAt) < t.interval {
		return
	}
	t.lastAt = now
	t.lastBytes = b
	t.emit(Sample{Bytes: b, Total: t.total, Elapsed: now.Sub(t.start)})
}

// Bytes returns the bytes counted so far.
func (t *Tracker) Bytes() int64 {
	return t.bytes.Load()
}

// Dropped returns how many samples were discarded because the observer fell
// behind.
func (t *Tracker) Dropped() int64 {
	return t.dropped.Load()
}

// Close emits the final sample and waits until the observer has received
// it. Calls after the first are no-ops.
func (t *Tracker) Close() {
	t.closeOnce.Do(func() {
		b := t.bytes.Load()
		t.emit(Sample{Bytes: b, Total: t.total, Elapsed: t.now().Sub(t.start), Final: true})
		close(t.queue)
		<-t.done
	})
}

// emit queues s. Only the producer sends, so after discarding one sample
// there is always room for s.
func (t *Tracker) emit(s Sample) {
	select {
	case t.queue <- s:
		return
	default:
	}
	select {
	case <-t.queue:
		t.dropped.Add(1)
	default:
	}
	t.queue <- s
}

type countingReader struct {
	r io.Reader
	t *Tracker
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.t.Add(int64(n))
	return n, err
}

type countingWriter struct {
	w io.Writer
	t *Tracker
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.t.Add(int64(n))
	return n, err
}
