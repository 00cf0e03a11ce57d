// Package crate archives a file or directory tree into a compressed stream
// and extracts it again, reporting progress and benchmark figures along the
// way.
//
// Example usage:
//
//	p := crate.New(crate.WithLogger(logger))
//	res, err := p.Run(ctx, crate.Job{
//	    Mode:      crate.Archive,
//	    Input:     "site/",
//	    Output:    "site.tar.zst",
//	    Benchmark: true,
//	})
//	if err != nil {
//	    log.Fatalf("Error [%s]: %v", crate.KindOf(err), err)
//	}
//	fmt.Println(res.Benchmark)
//
// The archive name selects the format: ".zst" and ".bz2" compress a single
// file, ".tar.zst" and ".tar.bz2" wrap the input in a tar container first.
package crate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cratekit/crate/internal/codec"
	"github.com/cratekit/crate/internal/container"
	"github.com/cratekit/crate/internal/errs"
	"github.com/cratekit/crate/internal/progress"
	"github.com/cratekit/crate/internal/stats"
)

// Progress types.
type (
	Sample       = progress.Sample
	Observer     = progress.Observer
	ObserverFunc = progress.ObserverFunc
)

// Entry is one record of a tar container.
type Entry = container.Entry

// Result describes a finished job.
type Result struct {
	State State
	// Entries is the number of container entries written or restored.
	Entries int
	// Benchmark is set when the job requested it and completed.
	Benchmark *BenchmarkResult
}

// Pipeline runs archive and extract jobs. A Pipeline holds only read-only
// configuration, so concurrent jobs share nothing mutable.
type Pipeline struct {
	opts options
}

// New creates a Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	return &Pipeline{opts: cfg}
}

// Run executes job to completion. On failure the returned Result is in
// state Failed, every endpoint opened so far has been closed and partially
// written output is left on disk. A failed archive never receives the
// codec trailer or the tar end-of-archive marker, so it cannot decode as a
// complete archive.
func (p *Pipeline) Run(ctx context.Context, job Job) (*Result, error) {
	j := &jobRun{
		opts: &p.opts,
		job:  job,
		logger: p.opts.logger.With(
			zap.Stringer("mode", job.Mode),
			zap.String("input", job.Input),
			zap.String("output", job.Output),
		),
		start: p.opts.now(),
	}
	p.opts.stats.IncCounter(stats.MetricJobs, 1)

	err := j.run(ctx)
	if err != nil {
		if j.sealed != nil {
			j.sealed.seal()
		}
		j.closers.abort(j.logger)
		if errs.Cancelled(err) {
			err = fmt.Errorf("%s: %w", j.state, err)
		} else {
			err = errs.IO(j.job.Mode.String(), "", err)
		}
		j.moveTo(Failed)
		p.opts.stats.IncCounter(stats.MetricJobFailures, 1)
		j.logger.Debug("job failed", zap.Error(err))
		return &Result{State: Failed, Entries: j.entries}, err
	}

	elapsed := j.end.Sub(j.start)
	bench := newBenchmark(job.Mode, elapsed, j.in.Load(), j.out.Load())
	p.record(bench, j.entries)

	res := &Result{State: j.state, Entries: j.entries}
	if job.Benchmark {
		res.Benchmark = bench
	}
	j.logger.Debug("job done",
		zap.Duration("elapsed", elapsed),
		zap.Int64("bytesIn", bench.InputBytes),
		zap.Int64("bytesOut", bench.OutputBytes),
		zap.Int("entries", j.entries),
	)
	return res, nil
}

func (p *Pipeline) record(b *BenchmarkResult, entries int) {
	p.opts.stats.IncCounter(stats.MetricBytesIn, b.InputBytes)
	p.opts.stats.IncCounter(stats.MetricBytesOut, b.OutputBytes)
	p.opts.stats.ObserveHistogram(stats.MetricJobDuration, b.Elapsed.Seconds())
	p.opts.stats.SetGauge(stats.MetricRatio, b.Ratio)
	p.opts.stats.SetGauge(stats.MetricEntries, float64(entries))
}

// jobRun is the mutable state of one job. It never outlives Run.
type jobRun struct {
	opts    *options
	job     Job
	logger  *zap.Logger
	state   State
	closers closeStack

	start, end time.Time
	in, out    atomic.Int64
	entries    int

	// sealed fronts the archive file; it is sealed before a failed job
	// closes its encoders.
	sealed *sealWriter
}

func (j *jobRun) run(ctx context.Context) error {
	j.moveTo(Opening)
	if err := j.job.validate(); err != nil {
		return err
	}
	f, err := j.job.Format()
	if err != nil {
		return err
	}
	level := j.job.Level
	if j.job.Mode == Extract {
		level = 0
	}
	c, err := f.NewCodec(level)
	if err != nil {
		return err
	}

	switch j.job.Mode {
	case Archive:
		err = j.archive(ctx, f, c)
	default:
		err = j.extract(ctx, f, c)
	}
	if err != nil {
		return err
	}

	j.moveTo(Finalizing)
	if err := j.closers.closeAll(); err != nil {
		return errs.IO("close", "", err)
	}
	j.end = j.opts.now()
	j.moveTo(Done)
	return nil
}

func (j *jobRun) moveTo(to State) {
	from := j.state
	if !canMove(from, to) {
		j.logger.DPanic("illegal state transition", zap.Stringer("from", from), zap.Stringer("to", to))
	}
	j.state = to
	j.logger.Debug("state", zap.Stringer("from", from), zap.Stringer("to", to))
	if j.opts.stateHook != nil {
		j.opts.stateHook(j.job, from, to)
	}
}

// archive opens the input and the archive and streams the payload through
// the encoder. Closing, which writes the trailers, is left to Finalizing.
func (j *jobRun) archive(ctx context.Context, f Format, c codec.Codec) error {
	input := j.job.Input
	info, err := os.Stat(input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newError(ErrPathNotFound, "open input", input, err)
		}
		return errs.IO("open input", input, err)
	}
	if info.IsDir() && !f.Container {
		return newError(ErrInvalidConfig, "archive", input,
			fmt.Errorf("a directory needs a container format, not %q", f.String()))
	}
	if err := checkDistinct(input, info, j.job.Output); err != nil {
		return err
	}

	var entries []container.Entry
	total := info.Size()
	if f.Container {
		entries, total, err = container.Walk(input, j.logger)
		if err != nil {
			return err
		}
	} else if !info.Mode().IsRegular() {
		return newError(ErrInvalidConfig, "archive", input,
			fmt.Errorf("unsupported file type %s", info.Mode().Type()))
	}

	out, err := createFile(j.job.Output, j.job.Overwrite)
	if err != nil {
		return err
	}
	j.closers.push("output", out)
	j.sealed = &sealWriter{w: errs.Writer(out, j.job.Output)}
	sink := newCountingWriter(j.sealed, &j.out)

	var enc io.WriteCloser
	if sizer, ok := c.(codec.ContentSizer); ok && !f.Container {
		enc, err = sizer.SizedWriter(sink, total)
	} else {
		enc, err = c.Writer(sink)
	}
	if err != nil {
		return errs.Tag(ErrInvalidConfig, "open encoder", j.job.Output, err)
	}
	j.closers.push("encoder", enc)

	tracker := j.track(total)
	j.moveTo(Streaming)

	if !f.Container {
		return j.archiveFile(ctx, enc, tracker)
	}

	tw := container.NewWriter(enc)
	j.closers.push("container", tw)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := j.archiveEntry(ctx, tw, e, tracker); err != nil {
			return err
		}
		j.entries++
	}
	return nil
}

func (j *jobRun) archiveFile(ctx context.Context, enc io.Writer, tracker *progress.Tracker) error {
	src, err := os.Open(j.job.Input)
	if err != nil {
		return errs.IO("open input", j.job.Input, err)
	}
	j.closers.push("input", src)

	r := j.source(src, j.job.Input, tracker)
	_, err = j.copy(ctx, enc, r)
	return err
}

func (j *jobRun) archiveEntry(ctx context.Context, tw *container.Writer, e container.Entry, tracker *progress.Tracker) error {
	if e.Kind != container.File {
		return tw.WriteEntry(e, nil)
	}

	src, err := os.Open(e.Source())
	if err != nil {
		return errs.IO("open", e.Source(), err)
	}
	defer src.Close()

	r := ctxReader{ctx: ctx, r: j.source(src, e.Source(), tracker)}
	return tw.WriteEntry(e, bufio.NewReaderSize(r, j.opts.chunkSize))
}

// source builds the payload read chain: tagged file reads, the input byte
// count and, when enabled, progress.
func (j *jobRun) source(f *os.File, path string, tracker *progress.Tracker) io.Reader {
	r := newCountingReader(errs.Reader(f, path), &j.in)
	if tracker != nil {
		return tracker.Reader(r)
	}
	return r
}

// extract opens the archive and streams the decoded payload to a single
// file or through the container decoder into the output directory.
func (j *jobRun) extract(ctx context.Context, f Format, c codec.Codec) error {
	input := j.job.Input
	src, err := os.Open(input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newError(ErrPathNotFound, "open input", input, err)
		}
		return errs.IO("open input", input, err)
	}
	j.closers.push("input", src)
	if info, err := src.Stat(); err != nil {
		return errs.IO("stat", input, err)
	} else if info.IsDir() {
		return newError(ErrInvalidConfig, "extract", input, errors.New("input is a directory"))
	}

	br := bufio.NewReaderSize(newCountingReader(errs.Reader(src, input), &j.in), j.opts.chunkSize)
	total := int64(-1)
	if sizer, ok := c.(codec.ContentSizer); ok && !f.Container {
		// A short peek just means the stream is tiny or truncated; the decoder
		// reports either case properly.
		prefix, _ := br.Peek(sizer.PrefixLen())
		if n, ok := sizer.DeclaredSize(prefix); ok {
			total = n
		}
	}

	dec, err := c.Reader(br)
	if err != nil {
		return errs.Corrupt("open decoder", err)
	}
	j.closers.push("decoder", dec)

	dir := j.job.outputDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.IO("mkdir", dir, err)
	}

	if !f.Container {
		target := filepath.Join(dir, f.Stem(input))
		out, err := createFile(target, j.job.Overwrite)
		if err != nil {
			return err
		}
		j.closers.push("output", out)

		var r io.Reader = dec
		if tracker := j.track(total); tracker != nil {
			r = tracker.Reader(dec)
		}
		j.moveTo(Streaming)
		_, err = j.copy(ctx, newCountingWriter(errs.Writer(out, target), &j.out), r)
		return err
	}

	var r io.Reader = ctxReader{ctx: ctx, r: dec}
	if tracker := j.track(-1); tracker != nil {
		r = tracker.Reader(r)
	}
	j.moveTo(Streaming)

	x := &container.Extractor{
		Dest:         dir,
		Overwrite:    j.job.Overwrite,
		MaxEntrySize: j.opts.maxEntry,
		Logger:       j.logger,
	}
	st, err := x.Extract(ctx, r)
	j.entries = st.Entries
	j.out.Store(st.Bytes)
	if err != nil {
		return err
	}

	// The codec trailer follows the end-of-archive marker and still has to
	// be decoded for its checksum to be verified.
	if _, err := io.CopyBuffer(io.Discard, r, make([]byte, j.opts.chunkSize)); err != nil {
		return err
	}
	return nil
}

// track starts a progress tracker when the job asks for one and an
// observer is configured. It returns nil otherwise, and nothing is wrapped.
func (j *jobRun) track(total int64) *progress.Tracker {
	if !j.job.Progress || j.opts.observer == nil {
		return nil
	}
	t := progress.New(total, j.opts.observer,
		progress.WithInterval(j.opts.interval),
		progress.WithThreshold(j.opts.threshold),
	)
	j.closers.pushFunc("progress", func() error {
		t.Close()
		return nil
	})
	return t
}

// copy is the chunked transfer loop. Cancellation is checked between chunks.
func (j *jobRun) copy(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, j.opts.chunkSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			m, werr := dst.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				return written, errs.IO("write", "", werr)
			}
			if m != n {
				return written, errs.IO("write", "", io.ErrShortWrite)
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, errs.IO("read", "", rerr)
		}
	}
}

// createFile creates path for writing. Without overwrite an existing path
// fails with ErrAlreadyExists and is left untouched.
func createFile(path string, overwrite bool) (*os.File, error) {
	flag := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if overwrite {
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, newError(ErrAlreadyExists, "create", path, err)
		}
		return nil, errs.IO("create", path, err)
	}
	return f, nil
}

// checkDistinct refuses to archive a file onto itself.
func checkDistinct(input string, info fs.FileInfo, output string) error {
	outInfo, err := os.Stat(output)
	if err != nil {
		return nil
	}
	if os.SameFile(info, outInfo) {
		return newError(ErrInvalidConfig, "archive", output, fmt.Errorf("output is the input %q", input))
	}
	return nil
}

// ctxReader fails reads once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

type countingReader struct {
	r io.Reader
	n *atomic.Int64
}

func newCountingReader(r io.Reader, counter *atomic.Int64) *countingReader {
	return &countingReader{r: r, n: counter}
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n.Add(int64(n))
	return n, err
}

type countingWriter struct {
	w io.Writer
	n *atomic.Int64
}

func newCountingWriter(w io.Writer, counter *atomic.Int64) *countingWriter {
	return &countingWriter{w: w, n: counter}
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n.Add(int64(n))
	return n, err
}

// sealWriter passes writes through until sealed and discards them after.
type sealWriter struct {
	w      io.Writer
	closed atomic.Bool
}

func (s *sealWriter) seal() { s.closed.Store(true) }

func (s *sealWriter) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return len(p), nil
	}
	return s.w.Write(p)
}
