package errs

import (
	"errors"
	"io"
)

// reader tags every non-EOF read error as ErrIOFailure.
type reader struct {
	r    io.Reader
	path string
}

// Reader wraps a filesystem reader so its failures surface as ErrIOFailure.
func Reader(r io.Reader, path string) io.Reader {
	return &reader{r: r, path: path}
}

func (r *reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		err = IO("read", r.path, err)
	}
	return n, err
}

// writer tags every write error as ErrIOFailure.
type writer struct {
	w    io.Writer
	path string
}

// Writer wraps a filesystem writer so its failures surface as ErrIOFailure.
func Writer(w io.Writer, path string) io.Writer {
	return &writer{w: w, path: path}
}

func (w *writer) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	if err != nil {
		err = IO("write", w.path, err)
	}
	return n, err
}
