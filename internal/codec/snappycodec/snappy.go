// Package snappycodec provides a codec for the snappy framing format.
package snappycodec

import (
	"fmt"
	"io"

	"github.com/golang/snappy"

	"github.com/cratekit/crate/internal/codec"
	"github.com/cratekit/crate/internal/errs"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec implements snappy stream compression. Snappy has no levels.
type Codec struct{}

// New returns a new snappy codec. Any level other than 0 is rejected.
func New(level int) (*Codec, error) {
	if level != 0 {
		return nil, errs.New(errs.ErrInvalidConfig, "snappy level", "",
			fmt.Errorf("snappy has no compression levels, got %d", level))
	}
	return &Codec{}, nil
}

// Reader wraps r to decompress a snappy stream.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return codec.Checked(io.NopCloser(snappy.NewReader(r))), nil
}

// Writer wraps w to compress data into a snappy stream. An empty input
// still produces the stream identifier chunk.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return &writer{w: w, sw: snappy.NewBufferedWriter(w)}, nil
}

// streamIdentifier is the chunk every framed snappy stream starts with.
const streamIdentifier = "\xff\x06\x00\x00sNaPpY"

// writer emits the stream identifier itself when the snappy writer never
// received a byte, because snappy only writes it with the first chunk.
type writer struct {
	w     io.Writer
	sw    *snappy.Writer
	wrote bool
}

func (w *writer) Write(p []byte) (int, error) {
	if len(p) > 0 {
		w.wrote = true
	}
	return w.sw.Write(p)
}

func (w *writer) Close() error {
	if err := w.sw.Close(); err != nil {
		return err
	}
	if w.wrote {
		return nil
	}
	_, err := io.WriteString(w.w, streamIdentifier)
	return err
}

// Extension returns "sz".
func (c *Codec) Extension() string {
	return "sz"
}

// Kind returns codec.Snappy.
func (c *Codec) Kind() codec.Kind {
	return codec.Snappy
}
