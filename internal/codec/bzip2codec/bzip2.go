// Package bzip2codec provides the bzip2 block codec.
package bzip2codec

import (
	"io"

	"github.com/dsnet/compress/bzip2"

	"github.com/cratekit/crate/internal/codec"
	"github.com/cratekit/crate/internal/errs"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec implements bzip2 compression. The encoder buffers at most one block
// (100k to 900k depending on level) and is fed in chunks.
type Codec struct {
	level int
}

// New returns a new bzip2 codec. Level is the block size in units of 100k
// (1..9); 0 selects the library default.
func New(level int) (*Codec, error) {
	if err := codec.CheckLevel(codec.Bzip2, level, bzip2.BestSpeed, bzip2.BestCompression); err != nil {
		return nil, err
	}
	if level == 0 {
		level = bzip2.DefaultCompression
	}
	return &Codec{level: level}, nil
}

// Reader wraps r to decompress bzip2 data.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	decoder, err := bzip2.NewReader(r, nil)
	if err != nil {
		return nil, errs.Corrupt("open bzip2 decoder", err)
	}
	return codec.Checked(decoder), nil
}

// Writer wraps w to compress data with bzip2.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	encoder, err := bzip2.NewWriter(w, &bzip2.WriterConfig{Level: c.level})
	if err != nil {
		return nil, errs.New(errs.ErrInvalidConfig, "open bzip2 encoder", "", err)
	}
	return encoder, nil
}

// Extension returns "bz2".
func (c *Codec) Extension() string {
	return "bz2"
}

// Kind returns codec.Bzip2.
func (c *Codec) Kind() codec.Kind {
	return codec.Bzip2
}
