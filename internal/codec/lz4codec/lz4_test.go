package lz4codec

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
	if got := c.Extension(); got != "lz4" {
		t.Errorf("Extension() = %q, want %q", got, "lz4")
	}
}

func TestCodec_Conformance(t *testing.T) {
	for _, level := range []int{0, 9} {
		c, err := New(level)
		if err != nil {
			t.Fatalf("New(%d) error = %v", level, err)
		}
		codectest.Run(t, c, codectest.Options{})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(10)
	if !errors.Is(err, errs.ErrInvalidConfig) {
		t.Errorf("New(10) error = %v, want ErrInvalidConfig", err)
	}
}
