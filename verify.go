package crate

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"sync/atomic"

	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/cratekit/crate/internal/container"
	"github.com/cratekit/crate/internal/errs"
	"github.com/cratekit/crate/internal/format"
)

// VerifyResult describes an archive that decoded cleanly.
type VerifyResult struct {
	Format Format
	// Entries lists the container entries in stream order. It is empty for
	// single-stream archives.
	Entries []Entry
	// ArchiveBytes is the size of the archive file.
	ArchiveBytes int64
	// DecodedBytes is the length of the decoded stream.
	DecodedBytes int64
	// Digest is the hex BLAKE3-256 digest of the decoded stream.
	Digest string
}

// Verify decodes the archive at path without writing anything. Damaged
// archives fail with ErrCorruptArchive.
func (p *Pipeline) Verify(ctx context.Context, path string) (*VerifyResult, error) {
	f, err := format.Resolve(path)
	if err != nil {
		return nil, err
	}
	c, err := f.NewCodec(0)
	if err != nil {
		return nil, err
	}

	src, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newError(ErrPathNotFound, "open input", path, err)
		}
		return nil, errs.IO("open input", path, err)
	}
	defer src.Close()

	var in, decoded atomic.Int64
	dec, err := c.Reader(newCountingReader(errs.Reader(src, path), &in))
	if err != nil {
		return nil, errs.Corrupt("open decoder", err)
	}
	defer dec.Close()

	h := blake3.New()
	r := ctxReader{ctx: ctx, r: io.TeeReader(newCountingReader(dec, &decoded), h)}

	res := &VerifyResult{Format: f}
	if f.Container {
		_, err := container.List(ctx, r, p.opts.maxEntry, func(e container.Entry) error {
			res.Entries = append(res.Entries, e)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if _, err := io.CopyBuffer(io.Discard, r, make([]byte, p.opts.chunkSize)); err != nil {
		return nil, errs.IO("read", path, err)
	}

	res.ArchiveBytes = in.Load()
	res.DecodedBytes = decoded.Load()
	res.Digest = hex.EncodeToString(h.Sum(nil))
	p.opts.logger.Debug("verified archive",
		zap.String("path", path),
		zap.Stringer("format", f),
		zap.Int("entries", len(res.Entries)),
		zap.String("blake3", res.Digest),
	)
	return res, nil
}
