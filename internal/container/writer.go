package container

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/user"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cratekit/crate/internal/errs"
)

// nameCacheSize bounds the uid and gid lookup caches.
const nameCacheSize = 64

// Writer encodes entries as a tar stream.
type Writer struct {
	tw     *tar.Writer
	users  *lru.Cache[int, string]
	groups *lru.Cache[int, string]
}

// NewWriter returns a Writer that encodes to w. Close finishes the stream
// but does not close w.
func NewWriter(w io.Writer) *Writer {
	users, _ := lru.New[int, string](nameCacheSize)
	groups, _ := lru.New[int, string](nameCacheSize)
	return &Writer{
		tw:     tar.NewWriter(w),
		users:  users,
		groups: groups,
	}
}

// WriteEntry writes the header for e followed by exactly e.Size bytes read
// from payload. Payload is ignored for directories and symlinks. Write
// failures are tagged errs.ErrIOFailure; read failures are returned as the
// payload reported them.
func (w *Writer) WriteEntry(e Entry, payload io.Reader) error {
	if err := w.tw.WriteHeader(w.header(e)); err != nil {
		return errs.IO("write header", e.Path, err)
	}
	if e.Kind != File || e.Size == 0 {
		return nil
	}

	n, err := io.CopyN(errs.Writer(w.tw, e.Path), payload, e.Size)
	if errors.Is(err, io.EOF) {
		return errs.New(errs.ErrIOFailure, "read", e.Source(),
			fmt.Errorf("file shrank during archiving: read %d of %d bytes", n, e.Size))
	}
	return err
}

// Close writes the end-of-archive marker.
func (w *Writer) Close() error {
	if err := w.tw.Close(); err != nil {
		return errs.IO("close container", "", err)
	}
	return nil
}

func (w *Writer) header(e Entry) *tar.Header {
	hdr := &tar.Header{
		Name:    e.Path,
		Mode:    tarMode(e.Mode),
		ModTime: e.ModTime,
		Format:  tar.FormatPAX,
	}
	switch e.Kind {
	case Dir:
		hdr.Typeflag = tar.TypeDir
		hdr.Name += "/"
	case Symlink:
		hdr.Typeflag = tar.TypeSymlink
		hdr.Linkname = e.Linkname
	default:
		hdr.Typeflag = tar.TypeReg
		hdr.Size = e.Size
	}

	// FileInfoHeader knows how to pull ownership out of the platform stat.
	if e.info != nil {
		if fh, err := tar.FileInfoHeader(e.info, e.Linkname); err == nil {
			hdr.Uid, hdr.Gid = fh.Uid, fh.Gid
			hdr.Uname = w.lookup(w.users, hdr.Uid, lookupUser)
			hdr.Gname = w.lookup(w.groups, hdr.Gid, lookupGroup)
		}
	}
	return hdr
}

func (w *Writer) lookup(cache *lru.Cache[int, string], id int, fn func(string) string) string {
	if name, ok := cache.Get(id); ok {
		return name
	}
	name := fn(strconv.Itoa(id))
	cache.Add(id, name)
	return name
}

func lookupUser(id string) string {
	u, err := user.LookupId(id)
	if err != nil {
		return ""
	}
	return u.Username
}

func lookupGroup(id string) string {
	g, err := user.LookupGroupId(id)
	if err != nil {
		return ""
	}
	return g.Name
}

// tarMode converts a FileMode to the tar header mode bits.
func tarMode(m fs.FileMode) int64 {
	mode := int64(m.Perm())
	if m&fs.ModeSetuid != 0 {
		mode |= 0o4000
	}
	if m&fs.ModeSetgid != 0 {
		mode |= 0o2000
	}
	if m&fs.ModeSticky != 0 {
		mode |= 0o1000
	}
	return mode
}
