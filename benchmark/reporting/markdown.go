// Package reporting renders codec benchmark results.
package reporting

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cratekit/crate/benchmark/analysis"
	"github.com/cratekit/crate/benchmark/runner"
)

// MarkdownReport generates benchmark reports in Markdown format.
type MarkdownReport struct {
	w   io.Writer
	now func() time.Time
}

// NewMarkdownReport creates a new Markdown report writer.
func NewMarkdownReport(w io.Writer) *MarkdownReport {
	return &MarkdownReport{w: w, now: time.Now}
}

// WriteHeader writes the report header.
func (r *MarkdownReport) WriteHeader(title string) {
	fmt.Fprintf(r.w, "# %s\n\n", title)
	fmt.Fprintf(r.w, "Generated: %s\n\n", r.now().Format(time.RFC3339))
}

// WriteMethodology writes the methodology section.
func (r *MarkdownReport) WriteMethodology(input string, inputBytes int64, runs int) {
	fmt.Fprintln(r.w, "## Methodology")
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "- **Input:** `%s` (%s)\n", input, humanize.IBytes(uint64(inputBytes)))
	fmt.Fprintf(r.w, "- **Runs per codec:** %d\n", runs)
	fmt.Fprintln(r.w, "- **Metric:** Wall-clock seconds per archive and extract job (lower is better)")
	fmt.Fprintln(r.w, "- **Statistical tests:** Mann-Whitney U (non-parametric), Cohen's d effect size")
	fmt.Fprintln(r.w)
}

// WriteSummaryTable writes the summary table, one row per codec.
func (r *MarkdownReport) WriteSummaryTable(results []*runner.CodecResult) {
	fmt.Fprintln(r.w, "## Summary")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "| Codec | Archive Size | Ratio | Saved | Archive Median | Extract Median | Archive Rate | Extract Rate |")
	fmt.Fprintln(r.w, "|-------|--------------|-------|-------|----------------|----------------|--------------|--------------|")

	for _, res := range results {
		m := runner.ComputeMetrics(res)
		fmt.Fprintf(r.w, "| %s | %s | %.3f | %.1f%% | %.4fs | %.4fs | %s/s | %s/s |\n",
			m.Codec, humanize.IBytes(uint64(res.ArchiveBytes)), m.Ratio, m.SpaceSaving,
			m.ArchiveMedian, m.ExtractMedian,
			humanize.IBytes(uint64(m.ArchiveThroughput)), humanize.IBytes(uint64(m.ExtractThroughput)))
	}
	fmt.Fprintln(r.w)
}

// WriteComparison writes a detailed comparison section.
func (r *MarkdownReport) WriteComparison(comp *analysis.CodecComparison) {
	fmt.Fprintf(r.w, "## %s vs %s (%s)\n\n", comp.Codec1, comp.Codec2, comp.Phase)

	fmt.Fprintln(r.w, "### Descriptive Statistics")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "| Metric | "+comp.Codec1+" | "+comp.Codec2+" |")
	fmt.Fprintln(r.w, "|--------|"+strings.Repeat("-", len(comp.Codec1)+2)+"|"+strings.Repeat("-", len(comp.Codec2)+2)+"|")
	fmt.Fprintf(r.w, "| Mean | %.4f | %.4f |\n", comp.Stats1.Mean, comp.Stats2.Mean)
	fmt.Fprintf(r.w, "| Median | %.4f | %.4f |\n", comp.Stats1.Median, comp.Stats2.Median)
	fmt.Fprintf(r.w, "| Std Dev | %.4f | %.4f |\n", comp.Stats1.StdDev, comp.Stats2.StdDev)
	fmt.Fprintf(r.w, "| Min | %.4f | %.4f |\n", comp.Stats1.Min, comp.Stats2.Min)
	fmt.Fprintf(r.w, "| Max | %.4f | %.4f |\n", comp.Stats1.Max, comp.Stats2.Max)
	fmt.Fprintln(r.w)

	fmt.Fprintln(r.w, "### Statistical Analysis")
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "- **Mann-Whitney U:** %.2f (z=%.2f, p=%.4f)\n",
		comp.MannWhitney.U, comp.MannWhitney.Z, comp.MannWhitney.PValue)
	fmt.Fprintf(r.w, "- **Effect size (Cohen's d):** %.2f (%s)\n",
		comp.EffectSize.CohensD, comp.EffectSize.Interpretation)
	fmt.Fprintln(r.w)

	fmt.Fprintln(r.w, "### Conclusion")
	fmt.Fprintln(r.w)
	if comp.Confident {
		fmt.Fprintf(r.w, "**%s** is significantly faster than %s ",
			comp.Winner, other(comp.Winner, comp.Codec1, comp.Codec2))
		fmt.Fprintf(r.w, "(p < 0.05, effect size: %s).\n", comp.EffectSize.Interpretation)
	} else {
		fmt.Fprintln(r.w, "No statistically significant difference detected between codecs (p >= 0.05).")
	}
	fmt.Fprintln(r.w)
}

func other(winner, c1, c2 string) string {
	if winner == c1 {
		return c2
	}
	return c1
}

// WriteRatioChart writes an ASCII bar chart of compression ratios.
func (r *MarkdownReport) WriteRatioChart(results []*runner.CodecResult) {
	fmt.Fprintln(r.w, "### Compression Ratio")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "```")

	var max float64
	width := 0
	for _, res := range results {
		if ratio := res.Ratio(); ratio > max {
			max = ratio
		}
		if len(res.Codec) > width {
			width = len(res.Codec)
		}
	}

	const bars = 40
	for _, res := range results {
		n := 0
		if max > 0 {
			n = int(res.Ratio() / max * bars)
		}
		fmt.Fprintf(r.w, "%-*s │ %s %.2f\n", width, res.Codec, strings.Repeat("█", n), res.Ratio())
	}

	fmt.Fprintln(r.w, "```")
	fmt.Fprintln(r.w)
}

// WriteFooter writes the report footer.
func (r *MarkdownReport) WriteFooter() {
	fmt.Fprintln(r.w, "---")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "*Report generated by crate bench*")
}
