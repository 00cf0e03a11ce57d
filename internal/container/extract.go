package container

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cratekit/crate/internal/errs"
)

// DefaultMaxEntrySize is the largest payload a header may declare (1 TiB).
const DefaultMaxEntrySize int64 = 1 << 40

// Stats summarizes a decoded stream.
type Stats struct {
	Entries int   // Entries processed, skipped entries excluded.
	Bytes   int64 // Payload bytes of regular files.
}

// Extractor reconstructs a tree from a tar stream under Dest.
type Extractor struct {
	// Dest is the directory entries are written under. It must exist.
	Dest string
	// Overwrite replaces existing files and symlinks. Without it an
	// existing path fails with errs.ErrAlreadyExists.
	Overwrite bool
	// MaxEntrySize bounds the size a header may declare. Zero means
	// DefaultMaxEntrySize.
	MaxEntrySize int64
	// Logger receives warnings for skipped entries. Nil means no logging.
	Logger *zap.Logger
}

type pendingDir struct {
	path    string
	mode    fs.FileMode
	modTime time.Time
}

// Extract decodes r entry by entry. Directories are created before their
// children and receive their final mode once the stream is exhausted. A
// failure aborts extraction; entries already written remain on disk.
func (x *Extractor) Extract(ctx context.Context, r io.Reader) (Stats, error) {
	logger := x.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var st Stats
	var dirs []pendingDir
	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return st, err
		}

		e, skip, err := next(tr, x.maxEntrySize(), logger)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return st, err
		}
		if skip {
			continue
		}

		target, err := x.target(e.Path)
		if err != nil {
			return st, err
		}

		switch e.Kind {
		case Dir:
			if info, err := os.Lstat(target); err == nil && !info.IsDir() {
				if err := x.clear(target); err != nil {
					return st, err
				}
			}
			if err := os.MkdirAll(target, 0o700); err != nil {
				return st, errs.IO("mkdir", target, err)
			}
			dirs = append(dirs, pendingDir{path: target, mode: e.Mode, modTime: e.ModTime})
		case Symlink:
			if err := x.symlink(e, target); err != nil {
				return st, err
			}
		case File:
			n, err := x.file(e, tr, target, logger)
			st.Bytes += n
			if err != nil {
				return st, err
			}
		}
		st.Entries++
	}

	// Deepest first, so restricting a parent never blocks a child.
	sort.SliceStable(dirs, func(i, j int) bool {
		return strings.Count(dirs[i].path, string(filepath.Separator)) >
			strings.Count(dirs[j].path, string(filepath.Separator))
	})
	for _, d := range dirs {
		restore(d.path, d.mode, d.modTime, logger)
	}

	return st, nil
}

// List decodes r without writing anything, calling fn for every entry after
// its payload has been consumed.
func List(ctx context.Context, r io.Reader, maxEntrySize int64, fn func(Entry) error) (Stats, error) {
	if maxEntrySize <= 0 {
		maxEntrySize = DefaultMaxEntrySize
	}

	var st Stats
	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return st, err
		}

		e, skip, err := next(tr, maxEntrySize, nil)
		if errors.Is(err, io.EOF) {
			return st, nil
		}
		if err != nil {
			return st, err
		}
		if skip {
			continue
		}

		if e.Kind == File {
			n, err := io.Copy(io.Discard, tr)
			st.Bytes += n
			if err != nil {
				return st, errs.Corrupt("read payload", err)
			}
			if n != e.Size {
				return st, errs.New(errs.ErrCorruptArchive, "read payload", e.Path,
					fmt.Errorf("got %d of %d bytes", n, e.Size))
			}
		}
		st.Entries++
		if fn != nil {
			if err := fn(e); err != nil {
				return st, err
			}
		}
	}
}

// next reads and validates the following header. It returns io.EOF at the
// end of the stream and skip=true for entry types the container does not
// reconstruct.
func next(tr *tar.Reader, maxEntrySize int64, logger *zap.Logger) (Entry, bool, error) {
	hdr, err := tr.Next()
	if err == io.EOF {
		return Entry{}, false, io.EOF
	}
	if err != nil {
		return Entry{}, false, errs.Corrupt("read header", err)
	}

	if hdr.Size < 0 || hdr.Size > maxEntrySize {
		return Entry{}, false, errs.New(errs.ErrCorruptArchive, "read header", hdr.Name,
			fmt.Errorf("declared size %d outside 0..%d", hdr.Size, maxEntrySize))
	}

	name := path.Clean(strings.TrimSuffix(hdr.Name, "/"))
	if !filepath.IsLocal(filepath.FromSlash(name)) && name != "." {
		return Entry{}, false, errs.New(errs.ErrCorruptArchive, "read header", hdr.Name,
			errors.New("entry path escapes the destination"))
	}

	e := Entry{
		Path:    name,
		Mode:    hdr.FileInfo().Mode() & modeMask,
		ModTime: hdr.ModTime,
	}
	switch hdr.Typeflag {
	case tar.TypeReg:
		e.Kind = File
		e.Size = hdr.Size
	case tar.TypeDir:
		e.Kind = Dir
	case tar.TypeSymlink:
		e.Kind = Symlink
		e.Linkname = hdr.Linkname
	default:
		if logger != nil {
			logger.Warn("skipping unsupported entry type",
				zap.String("path", hdr.Name),
				zap.String("type", string(hdr.Typeflag)),
			)
		}
		return e, true, nil
	}

	// The archive root itself carries nothing to restore.
	if name == "." {
		return e, true, nil
	}
	return e, false, nil
}

func (x *Extractor) maxEntrySize() int64 {
	if x.MaxEntrySize <= 0 {
		return DefaultMaxEntrySize
	}
	return x.MaxEntrySize
}

// target maps an entry path under Dest and refuses paths that would pass
// through a symlink, which could redirect writes outside Dest.
func (x *Extractor) target(rel string) (string, error) {
	parts := strings.Split(rel, "/")
	cur := x.Dest
	for _, part := range parts[:len(parts)-1] {
		cur = filepath.Join(cur, part)
		info, err := os.Lstat(cur)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			return "", errs.IO("stat", cur, err)
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return "", errs.New(errs.ErrCorruptArchive, "extract", rel,
				errors.New("entry path traverses a symlink"))
		}
	}
	return filepath.Join(x.Dest, filepath.FromSlash(rel)), nil
}

// clear prepares target for a new file or symlink.
func (x *Extractor) clear(target string) error {
	info, err := os.Lstat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errs.IO("stat", target, err)
	}
	if !x.Overwrite {
		return errs.New(errs.ErrAlreadyExists, "extract", target, nil)
	}
	if info.IsDir() {
		return errs.New(errs.ErrAlreadyExists, "extract", target,
			errors.New("a directory is in the way"))
	}
	if err := os.Remove(target); err != nil {
		return errs.IO("remove", target, err)
	}
	return nil
}

func (x *Extractor) file(e Entry, r io.Reader, target string, logger *zap.Logger) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, errs.IO("mkdir", filepath.Dir(target), err)
	}
	if err := x.clear(target); err != nil {
		return 0, err
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, errs.New(errs.ErrAlreadyExists, "create", target, err)
		}
		return 0, errs.IO("create", target, err)
	}

	n, err := io.CopyN(errs.Writer(f, target), r, e.Size)
	if err != nil {
		f.Close()
		if errors.Is(err, io.EOF) {
			return n, errs.New(errs.ErrCorruptArchive, "read payload", e.Path,
				fmt.Errorf("got %d of %d bytes", n, e.Size))
		}
		return n, errs.Corrupt("read payload", err)
	}
	if err := f.Close(); err != nil {
		return n, errs.IO("close", target, err)
	}

	restore(target, e.Mode, e.ModTime, logger)
	return n, nil
}

func (x *Extractor) symlink(e Entry, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errs.IO("mkdir", filepath.Dir(target), err)
	}
	if err := x.clear(target); err != nil {
		return err
	}
	if err := os.Symlink(e.Linkname, target); err != nil {
		return errs.IO("symlink", target, err)
	}
	return nil
}

// restore applies mode and modification time. Failures are logged only:
// some targets cannot represent POSIX permissions.
func restore(target string, mode fs.FileMode, modTime time.Time, logger *zap.Logger) {
	if err := os.Chmod(target, mode); err != nil {
		logger.Warn("could not set mode", zap.String("path", target), zap.Error(err))
	}
	if modTime.IsZero() {
		return
	}
	if err := os.Chtimes(target, modTime, modTime); err != nil {
		logger.Warn("could not set modification time", zap.String("path", target), zap.Error(err))
	}
}
