package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cratekit/crate"
)

// jobFlags are the flags shared by archive and extract.
type jobFlags struct {
	progress  bool
	benchmark bool
	force     bool
}

func (f *jobFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&f.progress, "progress", "p", false, "show progress on stderr")
	cmd.Flags().BoolVarP(&f.benchmark, "benchmark", "b", false, "print elapsed time, sizes and ratio when done")
	cmd.Flags().BoolVarP(&f.force, "force", "f", false, "overwrite existing output files")
}

func (f *jobFlags) apply(job *crate.Job) {
	job.Progress = f.progress
	job.Benchmark = f.benchmark
	job.Overwrite = f.force
}

func newArchiveCmd(c *cli) *cobra.Command {
	var (
		flags jobFlags
		level int
	)
	cmd := &cobra.Command{
		Use:   "archive <input> <output>",
		Short: "Compress a file or directory into an archive",
		Long: `Compress input into the archive named by output. Directories need a
container format such as .tar.zst or .tar.bz2.

Examples:
  crate archive notes.txt notes.txt.zst
  crate archive ./photos photos.tar.bz2 --level 9 --benchmark`,
		Args: rangeArgs(2, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := crate.NewJob(crate.Archive, args[0], args[1])
			if err != nil {
				return err
			}
			flags.apply(&job)
			job.Level = level
			return c.run(cmd.Context(), job)
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVarP(&level, "level", "l", 0, "codec level, 0 selects the codec default")
	return cmd
}

func newExtractCmd(c *cli) *cobra.Command {
	var flags jobFlags
	cmd := &cobra.Command{
		Use:   "extract <input> [output-dir]",
		Short: "Restore the contents of an archive",
		Long: `Extract input into output-dir, which defaults to the current directory
and is created if missing. A single compressed file is restored under its
archive name without the codec suffix.

Examples:
  crate extract notes.txt.zst
  crate extract photos.tar.bz2 ./restore --progress`,
		Args: rangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := "."
			if len(args) == 2 {
				output = args[1]
			}
			job, err := crate.NewJob(crate.Extract, args[0], output)
			if err != nil {
				return err
			}
			flags.apply(&job)
			return c.run(cmd.Context(), job)
		},
	}
	flags.register(cmd)
	return cmd
}

// run executes job and prints a one-line summary, or the benchmark figures
// when requested.
func (c *cli) run(ctx context.Context, job crate.Job) error {
	label := "Archive"
	if job.Mode == crate.Extract {
		label = "Extract"
	}
	res, err := c.pipeline(label).Run(ctx, job)
	if err != nil {
		return err
	}

	if res.Benchmark != nil {
		printBenchmark(c, res.Benchmark)
		return nil
	}
	switch job.Mode {
	case crate.Archive:
		size := "?"
		if info, err := os.Stat(job.Output); err == nil {
			size = humanize.IBytes(uint64(info.Size()))
		}
		fmt.Fprintf(c.stdout, "Created %s (%s)\n", job.Output, size)
	default:
		if res.Entries > 0 {
			fmt.Fprintf(c.stdout, "Extracted %d entries to %s\n", res.Entries, job.Output)
		} else {
			fmt.Fprintf(c.stdout, "Extracted %s to %s\n", job.Input, job.Output)
		}
	}
	return nil
}

func printBenchmark(c *cli, b *crate.BenchmarkResult) {
	fmt.Fprintf(c.stdout, "Elapsed: %s\n", b.Elapsed)
	fmt.Fprintf(c.stdout, "Input:   %s (%d bytes)\n", humanize.IBytes(uint64(b.InputBytes)), b.InputBytes)
	fmt.Fprintf(c.stdout, "Output:  %s (%d bytes)\n", humanize.IBytes(uint64(b.OutputBytes)), b.OutputBytes)
	fmt.Fprintf(c.stdout, "Ratio:   %.3f\n", b.Ratio)
	fmt.Fprintf(c.stdout, "Rate:    %s/s\n", humanize.IBytes(uint64(b.Throughput())))
}
