// Package gzipcodec provides a gzip compression codec.
package gzipcodec

import (
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/cratekit/crate/internal/codec"
	"github.com/cratekit/crate/internal/errs"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec implements gzip compression.
type Codec struct {
	level int
}

// New returns a new gzip codec. Level is 1..9; 0 selects the default.
func New(level int) (*Codec, error) {
	if err := codec.CheckLevel(codec.Gzip, level, gzip.BestSpeed, gzip.BestCompression); err != nil {
		return nil, err
	}
	if level == 0 {
		level = gzip.DefaultCompression
	}
	return &Codec{level: level}, nil
}

// Reader wraps r to decompress gzip data.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	decoder, err := gzip.NewReader(r)
	if err != nil {
		return nil, errs.Corrupt("open gzip decoder", err)
	}
	return codec.Checked(decoder), nil
}

// Writer wraps w to compress data with gzip.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	encoder, err := gzip.NewWriterLevel(w, c.level)
	if err != nil {
		return nil, errs.New(errs.ErrInvalidConfig, "open gzip encoder", "", err)
	}
	return encoder, nil
}

// Extension returns "gz".
func (c *Codec) Extension() string {
	return "gz"
}

// Kind returns codec.Gzip.
func (c *Codec) Kind() codec.Kind {
	return codec.Gzip
}
