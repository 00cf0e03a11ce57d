// Package codec provides the compression backends used by the archive pipeline.
package codec

import (
	"fmt"
	"io"

	"github.com/cratekit/crate/internal/errs"
)

// Kind identifies a compression backend.
type Kind uint8

const (
	// None passes data through unchanged. It backs plain .tar archives.
	None Kind = iota
	// Bzip2 is the block codec: one logical block stream with a trailing CRC.
	Bzip2
	// Zstd is the streaming codec: independently decodable frames.
	Zstd
	// Gzip is DEFLATE with a gzip header and CRC32 trailer.
	Gzip
	// LZ4 is the LZ4 frame format.
	LZ4
	// Brotli is a raw brotli stream.
	Brotli
	// Snappy is the snappy framing format.
	Snappy
)

// String returns the backend name.
func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Bzip2:
		return "bzip2"
	case Zstd:
		return "zstd"
	case Gzip:
		return "gzip"
	case LZ4:
		return "lz4"
	case Brotli:
		return "brotli"
	case Snappy:
		return "snappy"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Codec provides compression and decompression functionality.
type Codec interface {
	// Reader wraps r to decompress data read from it.
	// Decode failures surface from Read as errs.ErrCorruptArchive.
	Reader(r io.Reader) (io.ReadCloser, error)
	// Writer wraps w to compress data written to it. The trailer is written
	// on Close; Close does not close w.
	Writer(w io.Writer) (io.WriteCloser, error)
	// Extension returns the file extension without dot (e.g., "zst", "bz2").
	// Returns empty string for no compression.
	Extension() string
	// Kind identifies the backend.
	Kind() Kind
}

// ContentSizer is implemented by codecs whose framing can record the
// uncompressed size of a stream.
type ContentSizer interface {
	// SizedWriter is like Writer but declares size bytes of input up front.
	// Close fails if a different number of bytes was written.
	SizedWriter(w io.Writer, size int64) (io.WriteCloser, error)
	// DeclaredSize reads the uncompressed size from the first PrefixLen
	// bytes of a stream, if the stream declares one.
	DeclaredSize(prefix []byte) (int64, bool)
	// PrefixLen is the number of leading bytes DeclaredSize needs.
	PrefixLen() int
}

// CheckLevel validates a compression level. Zero selects the codec default
// and is always accepted.
func CheckLevel(k Kind, level, min, max int) error {
	if level == 0 || (level >= min && level <= max) {
		return nil
	}
	return errs.New(errs.ErrInvalidConfig, k.String()+" level", "",
		fmt.Errorf("level %d outside %d..%d", level, min, max))
}

// checkedReader classifies decoder failures.
type checkedReader struct {
	rc io.ReadCloser
}

// Checked wraps a decoder so that every non-EOF read error is reported as
// errs.ErrCorruptArchive. Errors already classified by the source endpoint
// (for example errs.ErrIOFailure) pass through unchanged.
func Checked(rc io.ReadCloser) io.ReadCloser {
	return &checkedReader{rc: rc}
}

func (c *checkedReader) Read(p []byte) (int, error) {
	n, err := c.rc.Read(p)
	// Only a bare io.EOF marks a clean end of stream.
	if err != nil && err != io.EOF {
		err = errs.Corrupt("decode", err)
	}
	return n, err
}

func (c *checkedReader) Close() error {
	return c.rc.Close()
}
