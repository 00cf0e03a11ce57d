// Package promcratefx provides an fx module for an archive pipeline that
// records job metrics in a Prometheus registry.
package promcratefx

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cratekit/crate"
	"github.com/cratekit/crate/internal/stats"
	promstats "github.com/cratekit/crate/internal/stats/prometheus"
)

// Config holds configuration for the Prometheus-backed pipeline.
type Config struct {
	// TextfilePath, if set, receives the registry contents when the app
	// stops, in node_exporter textfile format.
	TextfilePath string
}

// Module provides a *crate.Pipeline and the *prometheus.Registry it
// records into.
// Requires a *zap.Logger to be provided. Config is optional.
var Module = fx.Module("promcrate",
	fx.Provide(
		newRegistry,
		newCollector,
		newPipeline,
	),
)

func newRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func newCollector(reg *prometheus.Registry) (*promstats.Collector, stats.Collector) {
	c := promstats.New(reg)
	return c, c
}

// Params holds dependencies for creating the pipeline.
type Params struct {
	fx.In

	Config    Config `optional:"true"`
	Logger    *zap.Logger
	Collector *promstats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided pipeline.
type Result struct {
	fx.Out

	Pipeline *crate.Pipeline
}

func newPipeline(p Params) Result {
	pipeline := crate.New(
		crate.WithLogger(p.Logger.Named("crate")),
		crate.WithStats(p.Collector),
	)

	if path := p.Config.TextfilePath; path != "" {
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return p.Collector.WriteTextfile(path)
			},
		})
	}

	return Result{Pipeline: pipeline}
}
