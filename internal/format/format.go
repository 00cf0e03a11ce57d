// Package format maps archive file names to a compression backend and
// container mode.
package format

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cratekit/crate/internal/codec"
	"github.com/cratekit/crate/internal/codec/brotlicodec"
	"github.com/cratekit/crate/internal/codec/bzip2codec"
	"github.com/cratekit/crate/internal/codec/gzipcodec"
	"github.com/cratekit/crate/internal/codec/lz4codec"
	"github.com/cratekit/crate/internal/codec/noopcodec"
	"github.com/cratekit/crate/internal/codec/snappycodec"
	"github.com/cratekit/crate/internal/codec/zstdcodec"
	"github.com/cratekit/crate/internal/errs"
)

// Format is a resolved (backend, container) pair.
type Format struct {
	Codec     codec.Kind
	Container bool
	// Suffix is the matched extension sequence as written in the name,
	// e.g. ".tar.zst" or ".BZ2".
	Suffix string
}

// String returns the canonical suffix, e.g. "tar.zst".
func (f Format) String() string {
	if f.Codec == codec.None {
		return "tar"
	}
	ext := extensions[f.Codec]
	if f.Container {
		return "tar." + ext
	}
	return ext
}

// Stem strips the matched suffix from the base name of name.
func (f Format) Stem(name string) string {
	base := filepath.Base(name)
	return base[:len(base)-len(f.Suffix)]
}

// NewCodec constructs the backend with the given level.
func (f Format) NewCodec(level int) (codec.Codec, error) {
	return NewCodec(f.Codec, level)
}

// extensions is the canonical single extension of each backend.
var extensions = map[codec.Kind]string{
	codec.Bzip2:  "bz2",
	codec.Zstd:   "zst",
	codec.Gzip:   "gz",
	codec.LZ4:    "lz4",
	codec.Brotli: "br",
	codec.Snappy: "sz",
}

// byExtension is the inverse of extensions.
var byExtension = func() map[string]codec.Kind {
	m := make(map[string]codec.Kind, len(extensions))
	for k, ext := range extensions {
		m["."+ext] = k
	}
	return m
}()

// aliases are single extensions that imply a tar container.
var aliases = map[string]codec.Kind{
	".tzst": codec.Zstd,
	".tbz2": codec.Bzip2,
	".tbz":  codec.Bzip2,
	".tgz":  codec.Gzip,
}

// Resolve maps a file name to its format. Matching is case-insensitive and
// looks only at the base name: the trailing extension selects the codec and
// a preceding ".tar" enables the container.
func Resolve(name string) (Format, error) {
	base := filepath.Base(name)
	lower := strings.ToLower(base)
	ext := filepath.Ext(lower)

	if ext == ".tar" && len(ext) < len(lower) {
		return Format{Codec: codec.None, Container: true, Suffix: base[len(base)-len(ext):]}, nil
	}
	if kind, ok := aliases[ext]; ok && len(ext) < len(lower) {
		return Format{Codec: kind, Container: true, Suffix: base[len(base)-len(ext):]}, nil
	}

	kind, ok := byExtension[ext]
	if !ok || len(ext) == len(lower) {
		return Format{}, errs.New(errs.ErrUnknownFormat, "resolve", name,
			fmt.Errorf("supported extensions: %s", strings.Join(Supported(), ", ")))
	}

	f := Format{Codec: kind, Suffix: base[len(base)-len(ext):]}
	rest := lower[:len(lower)-len(ext)]
	if strings.HasSuffix(rest, ".tar") && len(rest) > len(".tar") {
		f.Container = true
		f.Suffix = base[len(base)-len(ext)-len(".tar"):]
	}
	return f, nil
}

// Supported lists the recognized suffixes in a stable order.
func Supported() []string {
	order := []codec.Kind{codec.Zstd, codec.Bzip2, codec.Gzip, codec.LZ4, codec.Brotli, codec.Snappy}
	var out []string
	for _, k := range order {
		out = append(out, "."+extensions[k], ".tar."+extensions[k])
	}
	return append(out, ".tzst", ".tbz2", ".tbz", ".tgz", ".tar")
}

// NewCodec constructs the backend for kind. Level 0 selects the backend's
// default; an out-of-range level fails with errs.ErrInvalidConfig.
func NewCodec(kind codec.Kind, level int) (codec.Codec, error) {
	switch kind {
	case codec.None:
		return noopcodec.New(level)
	case codec.Bzip2:
		return bzip2codec.New(level)
	case codec.Zstd:
		return zstdcodec.New(level)
	case codec.Gzip:
		return gzipcodec.New(level)
	case codec.LZ4:
		return lz4codec.New(level)
	case codec.Brotli:
		return brotlicodec.New(level)
	case codec.Snappy:
		return snappycodec.New(level)
	default:
		return nil, errs.New(errs.ErrInvalidConfig, "codec", "", fmt.Errorf("unsupported codec %s", kind))
	}
}
