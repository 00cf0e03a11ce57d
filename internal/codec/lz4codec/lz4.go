// Package lz4codec provides an LZ4 frame codec.
package lz4codec

import (
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/cratekit/crate/internal/codec"
	"github.com/cratekit/crate/internal/errs"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

var levels = []lz4.CompressionLevel{
	lz4.Fast,
	lz4.Level1, lz4.Level2, lz4.Level3,
	lz4.Level4, lz4.Level5, lz4.Level6,
	lz4.Level7, lz4.Level8, lz4.Level9,
}

// Codec implements LZ4 frame compression with content checksums.
type Codec struct {
	level lz4.CompressionLevel
}

// New returns a new LZ4 codec. Level is 1..9; 0 selects the fast mode.
func New(level int) (*Codec, error) {
	if err := codec.CheckLevel(codec.LZ4, level, 1, len(levels)-1); err != nil {
		return nil, err
	}
	return &Codec{level: levels[level]}, nil
}

// Reader wraps r to decompress LZ4 frames.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return codec.Checked(io.NopCloser(lz4.NewReader(r))), nil
}

// Writer wraps w to compress data into an LZ4 frame.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	encoder := lz4.NewWriter(w)
	if err := encoder.Apply(
		lz4.CompressionLevelOption(c.level),
		lz4.ChecksumOption(true),
	); err != nil {
		return nil, errs.New(errs.ErrInvalidConfig, "open lz4 encoder", "", err)
	}
	return encoder, nil
}

// Extension returns "lz4".
func (c *Codec) Extension() string {
	return "lz4"
}

// Kind returns codec.LZ4.
func (c *Codec) Kind() codec.Kind {
	return codec.LZ4
}
