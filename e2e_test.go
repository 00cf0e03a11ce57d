//go:build e2e

package crate_test

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
)

// sourceTree returns CRATE_E2E_DIR when set, or a generated tree of a few
// hundred files.
func sourceTree(t *testing.T) string {
	if dir := os.Getenv("CRATE_E2E_DIR"); dir != "" {
		return dir
	}
	dir := filepath.Join(t.TempDir(), "tree")
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 300; i++ {
		path := filepath.Join(dir, fmt.Sprintf("d%d", i%7), fmt.Sprintf("s%d", i%11), fmt.Sprintf("file-%03d.txt", i))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		data := make([]byte, rng.Intn(256<<10))
		for j := range data {
			data[j] = byte('a' + rng.Intn(4))
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
	return dir
}

func runCrate(t *testing.T, args ...string) {
	t.Helper()
	cmd := exec.Command("go", append([]string{"run", "./cmd/crate"}, args...)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("crate %v: %v", args, err)
	}
}

func TestE2E_RoundTrip(t *testing.T) {
	src := sourceTree(t)
	tmp := t.TempDir()

	for _, suffix := range []string{"tar.zst", "tar.bz2"} {
		t.Run(suffix, func(t *testing.T) {
			archive := filepath.Join(tmp, "tree."+suffix)
			dest := filepath.Join(tmp, "restore-"+suffix)

			t.Log("📦 Archiving...")
			start := time.Now()
			runCrate(t, "archive", src, archive, "--benchmark")
			t.Logf("   Archived in %v", time.Since(start))

			t.Log("📂 Extracting...")
			start = time.Now()
			runCrate(t, "extract", archive, dest, "--benchmark")
			t.Logf("   Extracted in %v", time.Since(start))

			compareTrees(t, src, dest)
		})
	}
}

// TestE2E_ReadableByReferenceDecoder decodes a crate archive with the zstd
// and tar readers directly, without going through crate.
func TestE2E_ReadableByReferenceDecoder(t *testing.T) {
	src := sourceTree(t)
	archive := filepath.Join(t.TempDir(), "tree.tar.zst")
	runCrate(t, "archive", src, archive)

	f, err := os.Open(archive)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd.NewReader() error = %v", err)
	}
	defer dec.Close()

	tr := tar.NewReader(dec)
	files := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		want, err := os.ReadFile(filepath.Join(src, filepath.FromSlash(hdr.Name)))
		if err != nil {
			t.Fatalf("ReadFile(%s) error = %v", hdr.Name, err)
		}
		got, err := io.ReadAll(tr)
		if err != nil {
			t.Fatalf("ReadAll(%s) error = %v", hdr.Name, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("%s: payload differs from source", hdr.Name)
		}
		files++
	}
	t.Logf("📊 %d files decoded by the reference reader", files)
}

func compareTrees(t *testing.T, want, got string) {
	t.Helper()
	var n int
	err := filepath.WalkDir(want, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return err
		}
		rel, err := filepath.Rel(want, path)
		if err != nil {
			return err
		}
		a, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(filepath.Join(got, rel))
		if err != nil {
			return err
		}
		if !bytes.Equal(a, b) {
			t.Errorf("%s: restored content differs", rel)
		}
		n++
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir() error = %v", err)
	}
	t.Logf("   %d files match", n)
}
