package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/cratekit/crate"
	"github.com/cratekit/crate/internal/progress"
	promstats "github.com/cratekit/crate/internal/stats/prometheus"
)

// cli holds the global flags and the output streams of one invocation.
type cli struct {
	verbose     bool
	metricsFile string

	stdout io.Writer
	stderr io.Writer

	logger    *zap.Logger
	collector *promstats.Collector
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "crate",
		Short: "Archive and extract files with bzip2, zstd and friends",
		Long: `Crate compresses a file or a directory tree into a single archive and
restores it again. The archive name selects the format:

  .zst .bz2 .gz .lz4 .br .sz     a single compressed file
  .tar.zst .tar.bz2 .tgz ...     a directory tree in a tar container

Examples:
  # Compress a directory
  crate archive ./site site.tar.zst --progress

  # Restore it into ./restore
  crate extract site.tar.zst ./restore

  # Check an archive without writing anything
  crate verify site.tar.zst

  # Compare codecs on a sample input
  crate bench ./site --codecs zst,bz2,gz --runs 5`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.setup()
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError("parse flags", err)
	})
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging on stderr")
	root.PersistentFlags().StringVar(&c.metricsFile, "metrics-textfile", "", "write Prometheus metrics to this file after the run")

	root.AddCommand(
		newArchiveCmd(c),
		newExtractCmd(c),
		newVerifyCmd(c),
		newBenchCmd(c),
	)
	return root
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr, logger: zap.NewNop()}
	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if ferr := c.flushMetrics(); ferr != nil && err == nil {
		err = ferr
	}
	_ = c.logger.Sync()
	if err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}

// setup builds the logger and, when requested, the metrics registry.
func (c *cli) setup() {
	level := zapcore.WarnLevel
	if c.verbose {
		level = zapcore.DebugLevel
	}
	encoder := zap.NewDevelopmentEncoderConfig()
	encoder.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoder), zapcore.AddSync(c.stderr), level)
	c.logger = zap.New(core).Named("crate")

	if c.metricsFile != "" {
		c.collector = promstats.New(prometheus.NewRegistry())
	}
}

func (c *cli) flushMetrics() error {
	if c.collector == nil {
		return nil
	}
	if err := c.collector.WriteTextfile(c.metricsFile); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

// pipeline builds a Pipeline whose progress lines carry label.
func (c *cli) pipeline(label string) *crate.Pipeline {
	opts := []crate.Option{
		crate.WithLogger(c.logger),
		crate.WithProgress(progress.NewPrinter(c.stderr, label, isTerminal(c.stderr))),
	}
	if c.collector != nil {
		opts = append(opts, crate.WithStats(c.collector))
	}
	return crate.New(opts...)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printError reports err as "Error [Kind]: message".
func printError(w io.Writer, err error) {
	if kind := crate.KindOf(err); kind != "" {
		fmt.Fprintf(w, "Error [%s]: %v\n", kind, err)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func usageError(op string, err error) error {
	return &crate.Error{Kind: crate.ErrInvalidConfig, Op: op, Err: err}
}

// rangeArgs is cobra.RangeArgs with the failure classified as InvalidConfig.
func rangeArgs(min, max int) cobra.PositionalArgs {
	check := cobra.RangeArgs(min, max)
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError("parse arguments", err)
		}
		return nil
	}
}
