// Package codectest provides conformance tests shared by codec implementations.
package codectest

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"testing"

	"github.com/cratekit/crate/internal/codec"
	"github.com/cratekit/crate/internal/errs"
)

// Options selects the optional checks a codec supports.
type Options struct {
	// DetectsTruncation enables the truncated-stream check. Only codecs with
	// an end-of-stream trailer can detect a missing final byte.
	DetectsTruncation bool
}

// Compress writes data through c in chunks of chunk bytes.
func Compress(t *testing.T, c codec.Codec, data []byte, chunk int) []byte {
	t.Helper()

	var compressed bytes.Buffer
	writer, err := c.Writer(&compressed)
	if err != nil {
		t.Fatalf("Writer() error = %v", err)
	}
	for off := 0; off < len(data); off += chunk {
		end := min(off+chunk, len(data))
		if _, err := writer.Write(data[off:end]); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return compressed.Bytes()
}

// Decompress reads all of compressed through c.
func Decompress(c codec.Codec, compressed []byte) ([]byte, error) {
	reader, err := c.Reader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// Run exercises round trips of several shapes and the corruption contract.
func Run(t *testing.T, c codec.Codec, opts Options) {
	t.Run("RoundTrip", func(t *testing.T) {
		original := []byte("Hello, World! This is test data for " + c.Kind().String() + " compression.")
		got, err := Decompress(c, Compress(t, c, original, len(original)))
		if err != nil {
			t.Fatalf("Decompress() error = %v", err)
		}
		if !bytes.Equal(got, original) {
			t.Errorf("Round-trip failed: got %q, want %q", got, original)
		}
	})

	t.Run("LargeDataChunked", func(t *testing.T) {
		original := bytes.Repeat([]byte("ABCDEFGHIJ"), 100000) // 1MB of repetitive data
		compressed := Compress(t, c, original, 4096)
		if len(compressed) >= len(original) {
			t.Errorf("Expected compression, got %d bytes from %d bytes", len(compressed), len(original))
		}
		got, err := Decompress(c, compressed)
		if err != nil {
			t.Fatalf("Decompress() error = %v", err)
		}
		if !bytes.Equal(got, original) {
			t.Error("Round-trip failed for large data")
		}
	})

	t.Run("RandomData", func(t *testing.T) {
		original := make([]byte, 300_000)
		rand.New(rand.NewSource(7)).Read(original)
		got, err := Decompress(c, Compress(t, c, original, 65536))
		if err != nil {
			t.Fatalf("Decompress() error = %v", err)
		}
		if !bytes.Equal(got, original) {
			t.Error("Round-trip failed for random data")
		}
	})

	t.Run("EmptyData", func(t *testing.T) {
		compressed := Compress(t, c, nil, 1)
		if len(compressed) == 0 {
			t.Fatal("empty input produced an empty archive, want a valid stream")
		}
		got, err := Decompress(c, compressed)
		if err != nil {
			t.Fatalf("Decompress() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Round-trip failed for empty data: got %q", got)
		}
	})

	if !opts.DetectsTruncation {
		return
	}

	t.Run("Truncated", func(t *testing.T) {
		original := bytes.Repeat([]byte("truncate me "), 5000)
		compressed := Compress(t, c, original, 1024)
		_, err := Decompress(c, compressed[:len(compressed)-1])
		if !errors.Is(err, errs.ErrCorruptArchive) {
			t.Errorf("Decompress(truncated) error = %v, want ErrCorruptArchive", err)
		}
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := Decompress(c, []byte("this is definitely not compressed data"))
		if !errors.Is(err, errs.ErrCorruptArchive) {
			t.Errorf("Decompress(garbage) error = %v, want ErrCorruptArchive", err)
		}
	})
}
