package zstdcodec

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
	if got := c.Extension(); got != "zst" {
		t.Errorf("Extension() = %q, want %q", got, "zst")
	}
}

func TestCodec_Conformance(t *testing.T) {
	for _, level := range []int{0, 1, 19} {
		c, err := New(level)
		if err != nil {
			t.Fatalf("New(%d) error = %v", level, err)
		}
		codectest.Run(t, c, codectest.Options{DetectsTruncation: true})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	for _, level := range []int{-1, 23, 100} {
		_, err := New(level)
		if !errors.Is(err, errs.ErrInvalidConfig) {
			t.Errorf("New(%d) error = %v, want ErrInvalidConfig", level, err)
		}
	}
}

func TestCodec_EmptyInputIsFrame(t *testing.T) {
	c, _ := New(0)
	compressed := codectest.Compress(t, c, nil, 1)
	if len(compressed) == 0 {
		t.Fatal("empty input produced an empty archive, want a complete frame")
	}
}

func TestCodec_DeclaredSize(t *testing.T) {
	c, _ := New(0)
	original := bytes.Repeat([]byte("sized "), 1000)

	var compressed bytes.Buffer
	w, err := c.SizedWriter(&compressed, int64(len(original)))
	if err != nil {
		t.Fatalf("SizedWriter() error = %v", err)
	}
	if _, err := w.Write(original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	prefix := compressed.Bytes()[:min(c.PrefixLen(), compressed.Len())]
	size, ok := c.DeclaredSize(prefix)
	if !ok {
		t.Fatal("DeclaredSize() ok = false, want true")
	}
	if size != int64(len(original)) {
		t.Errorf("DeclaredSize() = %d, want %d", size, len(original))
	}

	got, err := codectest.Decompress(c, compressed.Bytes())
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Error("Round-trip failed for sized stream")
	}
}

func TestCodec_DeclaredSize_Garbage(t *testing.T) {
	c, _ := New(0)
	if _, ok := c.DeclaredSize([]byte("nope")); ok {
		t.Error("DeclaredSize() ok = true for garbage")
	}
}
