package brotlicodec

import (
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
	if got := c.Extension(); got != "br" {
		t.Errorf("Extension() = %q, want %q", got, "br")
	}
}

func TestCodec_Conformance(t *testing.T) {
	c, err := New(4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	codectest.Run(t, c, codectest.Options{})
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(12)
	if !errors.Is(err, errs.ErrInvalidConfig) {
		t.Errorf("New(12) error = %v, want ErrInvalidConfig", err)
	}
}
