package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cratekit/crate"
	"github.com/cratekit/crate/benchmark/analysis"
	"github.com/cratekit/crate/benchmark/reporting"
	"github.com/cratekit/crate/benchmark/runner"
)

func newBenchCmd(c *cli) *cobra.Command {
	var (
		codecs       []string
		runs         int
		level        int
		outputFormat string
		outputFile   string
		workDir      string
	)
	cmd := &cobra.Command{
		Use:   "bench <input>",
		Short: "Compare codecs on a sample input",
		Long: `Archive and extract input with every codec, several times each, and
report sizes, ratios and timing statistics. Every codec is compared
against the first one with a Mann-Whitney U test and Cohen's d.

Examples:
  # Compare the default codecs
  crate bench ./site

  # Write a Markdown report
  crate bench big.log --codecs zst,bz2,lz4 --runs 10 --format markdown --output report.md`,
		Args: rangeArgs(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if runs < 1 {
				return usageError("parse flags", fmt.Errorf("--runs must be positive, got %d", runs))
			}
			if outputFormat != "text" && outputFormat != "markdown" {
				return usageError("parse flags", fmt.Errorf("unknown format %q", outputFormat))
			}

			suffixes := normalizeCodecs(codecs)
			if len(suffixes) == 0 {
				return usageError("parse flags", errors.New("no codecs given"))
			}
			for _, codec := range suffixes {
				if _, err := crate.NewJob(crate.Archive, input, "bench."+codec); err != nil {
					return err
				}
			}

			dir, err := os.MkdirTemp(workDir, "crate-bench-*")
			if err != nil {
				return fmt.Errorf("creating work directory: %w", err)
			}
			defer os.RemoveAll(dir)

			c.logger.Info("running benchmark",
				zap.Strings("codecs", suffixes),
				zap.Int("runs", runs),
			)
			results, err := runner.NewRunner(c.pipeline("Bench"), dir, suffixes...).WithLevel(level).Run(cmd.Context(), input, runs)
			if err != nil {
				return err
			}

			var out io.Writer = c.stdout
			if outputFile != "" {
				f, err := os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			multi := analysis.CompareAll(results)
			if outputFormat == "markdown" {
				return reporting.WriteMarkdown(out, input, runs, results, multi)
			}
			return reporting.WriteText(out, input, runs, results, multi)
		},
	}
	cmd.Flags().StringSliceVarP(&codecs, "codecs", "c", []string{"zst", "bz2"}, "codec suffixes to compare; the first is the baseline")
	cmd.Flags().IntVarP(&runs, "runs", "n", 3, "archive/extract cycles per codec")
	cmd.Flags().IntVarP(&level, "level", "l", 0, "codec level, 0 selects each codec's default")
	cmd.Flags().StringVar(&outputFormat, "format", "text", "report format: text, markdown")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "report file (default: stdout)")
	cmd.Flags().StringVar(&workDir, "work-dir", "", "directory for scratch archives (default: system temp)")
	return cmd
}

func normalizeCodecs(codecs []string) []string {
	out := make([]string, 0, len(codecs))
	for _, c := range codecs {
		c = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c)), ".")
		c = strings.TrimPrefix(c, "tar.")
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
