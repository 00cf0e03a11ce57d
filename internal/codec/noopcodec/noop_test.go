package noopcodec

import (
	"errors"
	"testing"

	"github.com/cratekit/crate/internal/codec/codectest"
	"github.com/cratekit/crate/internal/errs"
)

func TestCodec_PassThrough(t *testing.T) {
	c, err := New(0)
	if err != nil {
		t.Fatalf("New(0) error = %v", err)
	}
	if got := c.Extension(); got != "" {
		t.Errorf("Extension() = %q, want empty", got)
	}

	original := []byte("passes through unchanged")
	compressed := codectest.Compress(t, c, original, 5)
	if string(compressed) != string(original) {
		t.Errorf("Writer() output = %q, want %q", compressed, original)
	}
	got, err := codectest.Decompress(c, compressed)
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if string(got) != string(original) {
		t.Errorf("Reader() output = %q, want %q", got, original)
	}
}

func TestNew_RejectsLevel(t *testing.T) {
	if _, err := New(3); !errors.Is(err, errs.ErrInvalidConfig) {
		t.Errorf("New(3) error = %v, want ErrInvalidConfig", err)
	}
}
