package crate

import (
	"time"

	"go.uber.org/zap"

	"github.com/cratekit/crate/internal/container"
	"github.com/cratekit/crate/internal/progress"
	"github.com/cratekit/crate/internal/stats"
)

// DefaultChunkSize is the buffer size of the copy loop.
const DefaultChunkSize = 128 << 10

// Option configures a Pipeline.
type Option interface {
	apply(*options)
}

// options holds the pipeline configuration.
type options struct {
	logger    *zap.Logger
	stats     stats.Collector
	observer  progress.Observer
	interval  time.Duration
	threshold int64
	chunkSize int
	maxEntry  int64
	stateHook StateHook
	now       func() time.Time
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		logger:    zap.NewNop(),
		stats:     stats.NewNoop(),
		interval:  progress.DefaultInterval,
		threshold: progress.DefaultThreshold,
		chunkSize: DefaultChunkSize,
		maxEntry:  container.DefaultMaxEntrySize,
		now:       time.Now,
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		if l != nil {
			o.logger = l
		}
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		if c != nil {
			o.stats = c
		}
	})
}

// WithProgress sets the observer that receives progress samples for jobs
// with Progress enabled. Without an observer no tracking takes place.
func WithProgress(obs Observer) Option {
	return optionFunc(func(o *options) {
		o.observer = obs
	})
}

// WithProgressInterval sets the minimum time between progress samples.
func WithProgressInterval(d time.Duration) Option {
	return optionFunc(func(o *options) {
		if d > 0 {
			o.interval = d
		}
	})
}

// WithProgressThreshold sets the byte count that forces a progress sample.
func WithProgressThreshold(n int64) Option {
	return optionFunc(func(o *options) {
		if n > 0 {
			o.threshold = n
		}
	})
}

// WithChunkSize sets the copy loop buffer size.
// Default is 128 KiB.
func WithChunkSize(n int) Option {
	return optionFunc(func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	})
}

// WithMaxEntrySize bounds the payload size a container header may declare.
// Default is 1 TiB.
func WithMaxEntrySize(n int64) Option {
	return optionFunc(func(o *options) {
		if n > 0 {
			o.maxEntry = n
		}
	})
}

// WithStateHook registers a function called on every state transition.
func WithStateHook(h StateHook) Option {
	return optionFunc(func(o *options) {
		o.stateHook = h
	})
}

// WithClock replaces time.Now for benchmark timing.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(o *options) {
		if now != nil {
			o.now = now
		}
	})
}
