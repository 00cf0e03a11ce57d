package gzipcodec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/cratekit/crate/internal/codec/codectest"
	"github.com/cratekit/crate/internal/errs"
)

func TestCodec_Extension(t *testing.T) {
	c, err := New(0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := c.Extension(); got != "gz" {
		t.Errorf("Extension() = %q, want %q", got, "gz")
	}
}

func TestCodec_Conformance(t *testing.T) {
	c, err := New(0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	codectest.Run(t, c, codectest.Options{DetectsTruncation: true})
}

func TestCodec_Reader_InvalidData(t *testing.T) {
	c, _ := New(0)
	invalidData := bytes.NewReader([]byte("not gzip data"))

	_, err := c.Reader(invalidData)
	if !errors.Is(err, errs.ErrCorruptArchive) {
		t.Errorf("Reader() error = %v, want ErrCorruptArchive", err)
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(12)
	if !errors.Is(err, errs.ErrInvalidConfig) {
		t.Errorf("New(12) error = %v, want ErrInvalidConfig", err)
	}
}
