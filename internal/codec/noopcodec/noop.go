// Package noopcodec provides the identity codec used by plain .tar archives.
package noopcodec

import (
	"fmt"
	"io"

	"github.com/cratekit/crate/internal/codec"
	"github.com/cratekit/crate/internal/errs"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec passes bytes through unchanged.
type Codec struct{}

// New returns the identity codec. Any level other than 0 is rejected.
func New(level int) (*Codec, error) {
	if level != 0 {
		return nil, errs.New(errs.ErrInvalidConfig, "tar level", "",
			fmt.Errorf("uncompressed tar has no levels, got %d", level))
	}
	return &Codec{}, nil
}

// Reader returns r as a ReadCloser. Closing it does not close r.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

// Writer returns w as a WriteCloser. Closing it does not close w.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

// Extension returns the empty string.
func (c *Codec) Extension() string {
	return ""
}

// Kind returns codec.None.
func (c *Codec) Kind() codec.Kind {
	return codec.None
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
