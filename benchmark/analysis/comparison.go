package analysis

import (
	"fmt"

	"github.com/cratekit/crate/benchmark/runner"
)

// CodecComparison compares the timings of two codecs for one direction.
type CodecComparison struct {
	Codec1      string
	Codec2      string
	Phase       string // "archive" or "extract".
	Stats1      *DescriptiveStats
	Stats2      *DescriptiveStats
	MannWhitney *MannWhitneyResult
	EffectSize  *EffectSize
	Winner      string // Faster codec, or "tie".
	Confident   bool   // True if the difference is statistically significant.
}

// Compare contrasts the archive or extract timings of two codecs.
func Compare(r1, r2 *runner.CodecResult, phase string) *CodecComparison {
	s1, s2 := samples(r1, phase), samples(r2, phase)
	mw := MannWhitneyU(s1, s2)

	c := &CodecComparison{
		Codec1:      r1.Codec,
		Codec2:      r2.Codec,
		Phase:       phase,
		Stats1:      Describe(s1),
		Stats2:      Describe(s2),
		MannWhitney: mw,
		EffectSize:  ComputeEffectSize(s1, s2),
		Winner:      "tie",
	}
	switch {
	case c.Stats1.Median < c.Stats2.Median:
		c.Winner, c.Confident = r1.Codec, mw.Significant
	case c.Stats2.Median < c.Stats1.Median:
		c.Winner, c.Confident = r2.Codec, mw.Significant
	}
	return c
}

func samples(r *runner.CodecResult, phase string) []float64 {
	if phase == "extract" {
		return r.ExtractSeconds
	}
	return r.ArchiveSeconds
}

// Summary returns a human-readable summary of the comparison.
func (c *CodecComparison) Summary() string {
	sig := "not statistically significant"
	if c.MannWhitney.Significant {
		sig = fmt.Sprintf("statistically significant (p=%.4f)", c.MannWhitney.PValue)
	}
	return fmt.Sprintf(
		"%s vs %s (%s):\n"+
			"  %s: median=%.4fs, mean=%.4fs, std=%.4fs\n"+
			"  %s: median=%.4fs, mean=%.4fs, std=%.4fs\n"+
			"  Difference: %.1f%%\n"+
			"  Effect size: %.2f (%s)\n"+
			"  Result: %s, %s",
		c.Codec1, c.Codec2, c.Phase,
		c.Codec1, c.Stats1.Median, c.Stats1.Mean, c.Stats1.StdDev,
		c.Codec2, c.Stats2.Median, c.Stats2.Mean, c.Stats2.StdDev,
		safePctDiff(c.Stats1.Median, c.Stats2.Median),
		c.EffectSize.CohensD, c.EffectSize.Interpretation,
		c.Winner, sig,
	)
}

func safePctDiff(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return (a - b) / b * 100
}

// MultiComparison compares several codecs against a baseline.
type MultiComparison struct {
	Baseline    string
	Comparisons []*CodecComparison
}

// CompareAll compares every codec against the first result, once per phase.
// It returns nil when there are fewer than two results.
func CompareAll(results []*runner.CodecResult) *MultiComparison {
	if len(results) < 2 {
		return nil
	}
	base := results[0]
	multi := &MultiComparison{Baseline: base.Codec}
	for _, r := range results[1:] {
		multi.Comparisons = append(multi.Comparisons,
			Compare(base, r, "archive"),
			Compare(base, r, "extract"),
		)
	}
	return multi
}
