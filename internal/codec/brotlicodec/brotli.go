// Package brotlicodec provides a brotli compression codec.
package brotlicodec

import (
	"io"

	"github.com/andybalholm/brotli"

	"github.com/cratekit/crate/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec implements brotli compression.
type Codec struct {
	level int
}

// New returns a new brotli codec. Level is the brotli quality 1..11; 0
// selects the default.
func New(level int) (*Codec, error) {
	if err := codec.CheckLevel(codec.Brotli, level, 1, brotli.BestCompression); err != nil {
		return nil, err
	}
	if level == 0 {
		level = brotli.DefaultCompression
	}
	return &Codec{level: level}, nil
}

// Reader wraps r to decompress brotli data.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return codec.Checked(io.NopCloser(brotli.NewReader(r))), nil
}

// Writer wraps w to compress data with brotli.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return brotli.NewWriterLevel(w, c.level), nil
}

// Extension returns "br".
func (c *Codec) Extension() string {
	return "br"
}

// Kind returns codec.Brotli.
func (c *Codec) Kind() codec.Kind {
	return codec.Brotli
}
