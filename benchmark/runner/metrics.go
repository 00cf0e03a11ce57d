package runner

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Metrics contains figures derived from a CodecResult.
type Metrics struct {
	Codec string

	// Size metrics.
	Ratio       float64
	SpaceSaving float64 // Percent of the input saved.

	// Timing metrics, in seconds.
	ArchiveMedian float64
	ArchiveP90    float64
	ExtractMedian float64
	ExtractP90    float64

	// Throughput of the median run, in uncompressed bytes per second.
	ArchiveThroughput float64
	ExtractThroughput float64
}

// ComputeMetrics derives Metrics from a result.
func ComputeMetrics(r *CodecResult) *Metrics {
	m := &Metrics{
		Codec: r.Codec,
		Ratio: r.Ratio(),
	}
	if r.InputBytes > 0 {
		m.SpaceSaving = (1 - float64(r.ArchiveBytes)/float64(r.InputBytes)) * 100
	}

	m.ArchiveMedian, m.ArchiveP90 = quantiles(r.ArchiveSeconds)
	m.ExtractMedian, m.ExtractP90 = quantiles(r.ExtractSeconds)
	m.ArchiveThroughput = rate(r.InputBytes, m.ArchiveMedian)
	m.ExtractThroughput = rate(r.InputBytes, m.ExtractMedian)
	return m
}

func quantiles(sample []float64) (median, p90 float64) {
	if len(sample) == 0 {
		return 0, 0
	}
	sorted := append([]float64(nil), sample...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil),
		stat.Quantile(0.9, stat.Empirical, sorted, nil)
}

func rate(bytes int64, seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return float64(bytes) / seconds
}
