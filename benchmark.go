package crate

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// BenchmarkResult summarizes a completed job.
type BenchmarkResult struct {
	Mode        Mode
	Elapsed     time.Duration
	InputBytes  int64 // Archive: payload read. Extract: archive read.
	OutputBytes int64 // Archive: archive written. Extract: payload written.
	Ratio       float64
}

// newBenchmark computes the ratio as uncompressed over compressed size:
// input/output when archiving and output/input when extracting. Either size
// being zero yields 1.
func newBenchmark(mode Mode, elapsed time.Duration, in, out int64) *BenchmarkResult {
	b := &BenchmarkResult{
		Mode:        mode,
		Elapsed:     elapsed,
		InputBytes:  in,
		OutputBytes: out,
		Ratio:       1,
	}
	if in == 0 || out == 0 {
		return b
	}
	if mode == Extract {
		b.Ratio = float64(out) / float64(in)
	} else {
		b.Ratio = float64(in) / float64(out)
	}
	return b
}

// Throughput returns the uncompressed bytes per second.
func (b *BenchmarkResult) Throughput() float64 {
	if b.Elapsed <= 0 {
		return 0
	}
	raw := b.InputBytes
	if b.Mode == Extract {
		raw = b.OutputBytes
	}
	return float64(raw) / b.Elapsed.Seconds()
}

// String renders the result on one line.
func (b *BenchmarkResult) String() string {
	return fmt.Sprintf("elapsed %s, input %s, output %s, ratio %.3f, %s/s",
		b.Elapsed.Round(time.Microsecond),
		humanize.IBytes(uint64(b.InputBytes)),
		humanize.IBytes(uint64(b.OutputBytes)),
		b.Ratio,
		humanize.IBytes(uint64(b.Throughput())),
	)
}
