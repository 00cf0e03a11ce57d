// Package cratefx provides an fx module for an archive pipeline that logs
// its job metrics.
package cratefx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cratekit/crate"
	"github.com/cratekit/crate/internal/stats"
	"github.com/cratekit/crate/internal/stats/logger"
)

// Config holds optional pipeline tuning. Zero values keep the defaults.
type Config struct {
	// ChunkSize is the copy buffer size in bytes.
	ChunkSize int

	// MaxEntrySize caps the size of a single container entry on extract.
	MaxEntrySize int64
}

// Module provides a *crate.Pipeline.
// Requires a *zap.Logger to be provided. Config is optional.
var Module = fx.Module("crate",
	fx.Provide(
		newStatsCollector,
		newPipeline,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("crate"))
}

// Params holds dependencies for creating the pipeline.
type Params struct {
	fx.In

	Config    Config `optional:"true"`
	Logger    *zap.Logger
	Collector stats.Collector
	Observer  crate.Observer `optional:"true"`
}

// Result holds the provided pipeline.
type Result struct {
	fx.Out

	Pipeline *crate.Pipeline
}

func newPipeline(p Params) Result {
	return Result{Pipeline: crate.New(options(p)...)}
}

// options translates the module parameters into pipeline options.
func options(p Params) []crate.Option {
	opts := []crate.Option{
		crate.WithLogger(p.Logger.Named("crate")),
		crate.WithStats(p.Collector),
	}
	if p.Config.ChunkSize > 0 {
		opts = append(opts, crate.WithChunkSize(p.Config.ChunkSize))
	}
	if p.Config.MaxEntrySize > 0 {
		opts = append(opts, crate.WithMaxEntrySize(p.Config.MaxEntrySize))
	}
	if p.Observer != nil {
		opts = append(opts, crate.WithProgress(p.Observer))
	}
	return opts
}
