package reporting

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/cratekit/crate/benchmark/analysis"
	"github.com/cratekit/crate/benchmark/runner"
)

// WriteText writes a plain-text report. multi may be nil.
func WriteText(w io.Writer, input string, runs int, results []*runner.CodecResult, multi *analysis.MultiComparison) error {
	fmt.Fprintf(w, "Crate Codec Benchmark\n")
	fmt.Fprintf(w, "=====================\n\n")
	fmt.Fprintf(w, "Input: %s\n", input)
	if len(results) > 0 {
		fmt.Fprintf(w, "Size:  %s\n", humanize.IBytes(uint64(results[0].InputBytes)))
	}
	fmt.Fprintf(w, "Runs:  %d\n\n", runs)

	fmt.Fprintf(w, "Results:\n")
	fmt.Fprintf(w, "--------\n\n")
	for _, res := range results {
		m := runner.ComputeMetrics(res)
		fmt.Fprintf(w, "%s:\n", m.Codec)
		fmt.Fprintf(w, "  Archive size:    %s\n", humanize.IBytes(uint64(res.ArchiveBytes)))
		fmt.Fprintf(w, "  Ratio:           %.3f (%.1f%% saved)\n", m.Ratio, m.SpaceSaving)
		fmt.Fprintf(w, "  Archive median:  %.4fs (p90 %.4fs, %s/s)\n",
			m.ArchiveMedian, m.ArchiveP90, humanize.IBytes(uint64(m.ArchiveThroughput)))
		fmt.Fprintf(w, "  Extract median:  %.4fs (p90 %.4fs, %s/s)\n\n",
			m.ExtractMedian, m.ExtractP90, humanize.IBytes(uint64(m.ExtractThroughput)))
	}

	if multi != nil {
		fmt.Fprintf(w, "Statistical Analysis:\n")
		fmt.Fprintf(w, "---------------------\n\n")
		for _, c := range multi.Comparisons {
			fmt.Fprintln(w, c.Summary())
			fmt.Fprintln(w)
		}
	}
	return nil
}

// WriteMarkdown writes a full Markdown report. multi may be nil.
func WriteMarkdown(w io.Writer, input string, runs int, results []*runner.CodecResult, multi *analysis.MultiComparison) error {
	report := NewMarkdownReport(w)
	report.WriteHeader("Crate Codec Benchmark")
	var size int64
	if len(results) > 0 {
		size = results[0].InputBytes
	}
	report.WriteMethodology(input, size, runs)
	report.WriteSummaryTable(results)
	report.WriteRatioChart(results)
	if multi != nil {
		for _, c := range multi.Comparisons {
			report.WriteComparison(c)
		}
	}
	report.WriteFooter()
	return nil
}
