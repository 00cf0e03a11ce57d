package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cratekit/crate"
)

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = execute(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestCLI_Help(t *testing.T) {
	code, stdout, _ := runCLI(t, "--help")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	for _, sub := range []string{"archive", "extract", "verify", "bench"} {
		if !strings.Contains(stdout, sub) {
			t.Errorf("help does not mention %q", sub)
		}
	}
}

func TestCLI_ArchiveExtractVerify(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	if err := os.MkdirAll(filepath.Join(src, "sub"), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "sub", "a.txt"), []byte("alpha"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	archive := filepath.Join(dir, "src.tar.zst")

	code, stdout, stderr := runCLI(t, "archive", src, archive)
	if code != 0 {
		t.Fatalf("archive exit code = %d, stderr = %s", code, stderr)
	}
	if !strings.HasPrefix(stdout, "Created "+archive) {
		t.Errorf("archive stdout = %q", stdout)
	}

	code, stdout, stderr = runCLI(t, "verify", archive)
	if code != 0 {
		t.Fatalf("verify exit code = %d, stderr = %s", code, stderr)
	}
	if !strings.Contains(stdout, "sub/a.txt") || !strings.Contains(stdout, "Format:   tar.zst") {
		t.Errorf("verify stdout = %q", stdout)
	}

	dest := filepath.Join(dir, "restore", "nested")
	code, stdout, stderr = runCLI(t, "extract", archive, dest, "--benchmark")
	if code != 0 {
		t.Fatalf("extract exit code = %d, stderr = %s", code, stderr)
	}
	if !strings.Contains(stdout, "Ratio:") {
		t.Errorf("extract --benchmark stdout = %q", stdout)
	}
	got, err := os.ReadFile(filepath.Join(dest, "sub", "a.txt"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "alpha" {
		t.Errorf("restored %q, want %q", got, "alpha")
	}
}

func TestCLI_Errors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing input", []string{"archive", filepath.Join(dir, "nope"), filepath.Join(dir, "o.zst")}, "Error [PathNotFound]"},
		{"unknown format", []string{"archive", file, filepath.Join(dir, "o.rar")}, "Error [UnknownFormat]"},
		{"directory without tar", []string{"archive", dir, filepath.Join(dir, "d.bz2")}, "Error [InvalidConfig]"},
		{"too few arguments", []string{"archive", file}, "Error [InvalidConfig]"},
		{"bad flag", []string{"extract", "--nope", "x.zst"}, "Error [InvalidConfig]"},
		{"bad level", []string{"archive", file, filepath.Join(dir, "l.bz2"), "--level", "99"}, "Error [InvalidConfig]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			if code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}
			if !strings.HasPrefix(stderr, tt.want) {
				t.Errorf("stderr = %q, want prefix %q", stderr, tt.want)
			}
		})
	}
}

func TestCLI_ExtractCorrupt(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "bad.bz2")
	if err := os.WriteFile(archive, []byte("definitely not bzip2"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	code, _, stderr := runCLI(t, "extract", archive, filepath.Join(dir, "out"))
	if code != 1 || !strings.HasPrefix(stderr, "Error [CorruptArchive]") {
		t.Errorf("exit code = %d, stderr = %q", code, stderr)
	}
}

func TestCLI_MetricsTextfile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("metrics"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	textfile := filepath.Join(dir, "crate.prom")

	code, _, stderr := runCLI(t, "--metrics-textfile", textfile, "archive", file, file+".lz4")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}
	data, err := os.ReadFile(textfile)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "crate_jobs_total 1") {
		t.Errorf("textfile = %s", data)
	}
}

func TestCLI_Bench(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, bytes.Repeat([]byte("bench "), 1000), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	report := filepath.Join(dir, "report.md")

	code, _, stderr := runCLI(t, "bench", file, "--codecs", "zst,.BZ2", "--runs", "2",
		"--format", "markdown", "--output", report, "--work-dir", dir)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}
	data, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "## zst vs bz2 (archive)") {
		t.Errorf("report = %s", data)
	}
}

func TestCLI_BenchUnknownCodec(t *testing.T) {
	code, _, stderr := runCLI(t, "bench", t.TempDir(), "--codecs", "rar")
	if code != 1 || !strings.HasPrefix(stderr, "Error [UnknownFormat]") {
		t.Errorf("exit code = %d, stderr = %q", code, stderr)
	}
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, errors.New("plain"))
	printError(&buf, &crate.Error{Kind: crate.ErrIOFailure, Op: "write", Path: "/x"})
	want := "Error: plain\nError [IOFailure]: write: i/o failure \"/x\"\n"
	if buf.String() != want {
		t.Errorf("printError() = %q, want %q", buf.String(), want)
	}
}

func TestNormalizeCodecs(t *testing.T) {
	got := normalizeCodecs([]string{" ZST", ".bz2", "tar.gz", ""})
	want := []string{"zst", "bz2", "gz"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("normalizeCodecs() = %v, want %v", got, want)
	}
}
