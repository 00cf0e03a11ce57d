// Package container linearizes a directory tree into a tar stream and
// reconstructs it again.
//
// Entries are produced in lexical depth-first order: names are sorted within
// each directory and a directory always precedes the entries nested under it.
// Symlinks are stored as links and never followed. Devices, sockets and named
// pipes are skipped with a warning.
package container

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/cratekit/crate/internal/errs"
)

// Kind is the type of a container entry.
type Kind uint8

const (
	// File is a regular file with Size bytes of payload.
	File Kind = iota + 1
	// Dir is a directory. It has no payload.
	Dir
	// Symlink is a symbolic link. Linkname holds its target.
	Symlink
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case File:
		return "file"
	case Dir:
		return "dir"
	case Symlink:
		return "symlink"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// modeMask keeps the bits the container records.
const modeMask = fs.ModePerm | fs.ModeSetuid | fs.ModeSetgid | fs.ModeSticky

// Entry is one record of the container stream.
type Entry struct {
	Path     string      // Slash-separated, relative to the archive root.
	Kind     Kind        // File, Dir or Symlink.
	Size     int64       // Payload length; zero unless Kind is File.
	Mode     fs.FileMode // Permission bits plus setuid, setgid and sticky.
	ModTime  time.Time   // Modification time.
	Linkname string      // Symlink target; empty unless Kind is Symlink.

	source string      // Filesystem path the entry was walked from.
	info   fs.FileInfo // Lstat result at walk time.
}

// Source returns the filesystem path an entry was walked from, or "" for
// entries decoded from a stream.
func (e Entry) Source() string {
	return e.source
}

// Walk lists the entries for root. A regular file yields a single entry
// named by its base name; a directory yields its descendants (not root
// itself) with paths relative to root. A root that is a symlink is resolved
// first; links below it are stored, never followed. The returned total is
// the sum of the sizes of all regular files.
func Walk(root string, logger *zap.Logger) ([]Entry, int64, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, errs.New(errs.ErrPathNotFound, "walk", root, err)
		}
		return nil, 0, errs.IO("walk", root, err)
	}

	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			return nil, 0, errs.New(errs.ErrInvalidConfig, "walk", root,
				fmt.Errorf("unsupported file type %s", info.Mode().Type()))
		}
		e := newEntry(filepath.Base(root), root, info, "")
		return []Entry{e}, e.Size, nil
	}

	// WalkDir does not descend into a symlinked root.
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, 0, errs.IO("walk", root, err)
	}
	root = resolved

	var entries []Entry
	var total int64
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return errs.IO("walk", path, walkErr)
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return errs.IO("walk", path, err)
		}
		rel = filepath.ToSlash(rel)

		info, err := d.Info()
		if err != nil {
			return errs.IO("stat", path, err)
		}

		var linkname string
		switch {
		case d.IsDir(), info.Mode().IsRegular():
		case info.Mode()&fs.ModeSymlink != 0:
			linkname, err = os.Readlink(path)
			if err != nil {
				return errs.IO("readlink", path, err)
			}
		default:
			logger.Warn("skipping unsupported file type",
				zap.String("path", path),
				zap.String("type", info.Mode().Type().String()),
			)
			return nil
		}

		e := newEntry(rel, path, info, linkname)
		total += e.Size
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func newEntry(rel, source string, info fs.FileInfo, linkname string) Entry {
	e := Entry{
		Path:    rel,
		Mode:    info.Mode() & modeMask,
		ModTime: info.ModTime(),
		source:  source,
		info:    info,
	}
	switch {
	case info.IsDir():
		e.Kind = Dir
	case info.Mode()&fs.ModeSymlink != 0:
		e.Kind = Symlink
		e.Linkname = linkname
	default:
		e.Kind = File
		e.Size = info.Size()
	}
	return e
}
