// Package runner measures archive and extract jobs for a set of codecs.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cratekit/crate"
)

// CodecResult holds every measurement taken for one codec.
type CodecResult struct {
	Codec          string // Archive suffix, e.g. "zst" or "tar.bz2".
	InputBytes     int64
	ArchiveBytes   int64
	ArchiveSeconds []float64 // One entry per run.
	ExtractSeconds []float64 // One entry per run.
}

// Ratio returns input over archive size, or 1 when either is zero.
func (r *CodecResult) Ratio() float64 {
	if r.InputBytes == 0 || r.ArchiveBytes == 0 {
		return 1
	}
	return float64(r.InputBytes) / float64(r.ArchiveBytes)
}

// Runner archives and extracts an input repeatedly with each codec.
type Runner struct {
	pipeline *crate.Pipeline
	workDir  string
	codecs   []string
	level    int
}

// NewRunner creates a Runner that keeps scratch files under workDir. Codecs
// are bare suffixes such as "zst"; a directory input is wrapped in tar.
func NewRunner(p *crate.Pipeline, workDir string, codecs ...string) *Runner {
	return &Runner{pipeline: p, workDir: workDir, codecs: codecs}
}

// WithLevel sets the codec level used for every archive job.
func (r *Runner) WithLevel(level int) *Runner {
	r.level = level
	return r
}

// Run measures runs archive/extract cycles per codec. Results keep the
// order of the codecs passed to NewRunner.
func (r *Runner) Run(ctx context.Context, input string, runs int) ([]*CodecResult, error) {
	if runs < 1 {
		return nil, fmt.Errorf("runs must be positive, got %d", runs)
	}
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}

	results := make([]*CodecResult, 0, len(r.codecs))
	for _, codec := range r.codecs {
		suffix := codec
		if info.IsDir() {
			suffix = "tar." + codec
		}
		res := &CodecResult{
			Codec:          suffix,
			ArchiveSeconds: make([]float64, 0, runs),
			ExtractSeconds: make([]float64, 0, runs),
		}
		for i := 0; i < runs; i++ {
			if err := r.cycle(ctx, input, suffix, i, res); err != nil {
				return nil, fmt.Errorf("%s run %d: %w", suffix, i, err)
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// cycle archives and extracts once, then removes the scratch files.
func (r *Runner) cycle(ctx context.Context, input, suffix string, i int, res *CodecResult) error {
	dir := filepath.Join(r.workDir, fmt.Sprintf("%s-%d", suffix, i))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	archive := filepath.Join(dir, "bench."+suffix)
	ar, err := r.pipeline.Run(ctx, crate.Job{
		Mode:      crate.Archive,
		Input:     input,
		Output:    archive,
		Level:     r.level,
		Benchmark: true,
	})
	if err != nil {
		return err
	}
	ex, err := r.pipeline.Run(ctx, crate.Job{
		Mode:      crate.Extract,
		Input:     archive,
		Output:    filepath.Join(dir, "out"),
		Benchmark: true,
	})
	if err != nil {
		return err
	}

	res.InputBytes = ar.Benchmark.InputBytes
	res.ArchiveBytes = ar.Benchmark.OutputBytes
	res.ArchiveSeconds = append(res.ArchiveSeconds, ar.Benchmark.Elapsed.Seconds())
	res.ExtractSeconds = append(res.ExtractSeconds, ex.Benchmark.Elapsed.Seconds())
	return nil
}
