// Package zstdcodec provides the zstd streaming codec.
package zstdcodec

import (
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/cratekit/crate/internal/codec"
	"github.com/cratekit/crate/internal/errs"
)

// Compile-time checks that Codec implements the codec interfaces.
var (
	_ codec.Codec        = (*Codec)(nil)
	_ codec.ContentSizer = (*Codec)(nil)
)

// Codec implements zstd compression.
type Codec struct {
	level zstd.EncoderLevel
}

// New returns a new zstd codec. Level follows the zstd command line scale
// (1..22); 0 selects the library default.
func New(level int) (*Codec, error) {
	if err := codec.CheckLevel(codec.Zstd, level, 1, 22); err != nil {
		return nil, err
	}
	c := &Codec{level: zstd.SpeedDefault}
	if level != 0 {
		c.level = zstd.EncoderLevelFromZstd(level)
	}
	return c, nil
}

// Reader wraps r to decompress zstd data.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, errs.Corrupt("open zstd decoder", err)
	}
	return codec.Checked(decoder.IOReadCloser()), nil
}

// Writer wraps w to compress data with zstd.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return c.SizedWriter(w, 0)
}

// SizedWriter wraps w and records size in the frame header.
// A size of 0 or less leaves the content size undeclared.
func (c *Codec) SizedWriter(w io.Writer, size int64) (io.WriteCloser, error) {
	// Empty input still produces a complete frame so the archive is never zero bytes.
	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(c.level),
		zstd.WithZeroFrames(true),
	)
	if err != nil {
		return nil, errs.New(errs.ErrInvalidConfig, "open zstd encoder", "", err)
	}
	encoder.ResetContentSize(w, size)
	return encoder, nil
}

// DeclaredSize returns the frame content size, if the first frame has one.
func (c *Codec) DeclaredSize(prefix []byte) (int64, bool) {
	var h zstd.Header
	if err := h.Decode(prefix); err != nil {
		return 0, false
	}
	if !h.HasFCS || h.Skippable {
		return 0, false
	}
	return int64(h.FrameContentSize), true
}

// PrefixLen returns the number of bytes DeclaredSize needs.
func (c *Codec) PrefixLen() int {
	return zstd.HeaderMaxSize
}

// Extension returns "zst".
func (c *Codec) Extension() string {
	return "zst"
}

// Kind returns codec.Zstd.
func (c *Codec) Kind() codec.Kind {
	return codec.Zstd
}
