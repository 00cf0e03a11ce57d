package crate

import (
	"io"

	"go.uber.org/zap"
)

type namedCloser struct {
	name string
	c    io.Closer
}

// closeStack releases endpoints in reverse order of acquisition. Each
// endpoint is popped before it is closed, so it is closed at most once.
type closeStack struct {
	items []namedCloser
}

func (s *closeStack) push(name string, c io.Closer) {
	s.items = append(s.items, namedCloser{name: name, c: c})
}

// pushFunc registers fn as a closer.
func (s *closeStack) pushFunc(name string, fn func() error) {
	s.push(name, closerFunc(fn))
}

// closeAll closes everything and returns the first failure. Later closers
// still run after a failure.
func (s *closeStack) closeAll() error {
	var first error
	for len(s.items) > 0 {
		it := s.pop()
		if err := it.c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// abort closes everything that is left, logging failures.
func (s *closeStack) abort(logger *zap.Logger) {
	for len(s.items) > 0 {
		it := s.pop()
		if err := it.c.Close(); err != nil {
			logger.Warn("cleanup failed", zap.String("endpoint", it.name), zap.Error(err))
		}
	}
}

func (s *closeStack) pop() namedCloser {
	it := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return it
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
