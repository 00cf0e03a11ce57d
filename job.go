package crate

import (
	"errors"
	"fmt"

	"github.com/cratekit/crate/internal/format"
)

// Mode selects the direction of a job.
type Mode uint8

const (
	// Archive compresses a file or directory into an archive.
	Archive Mode = iota + 1
	// Extract restores the contents of an archive.
	Extract
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Archive:
		return "archive"
	case Extract:
		return "extract"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// Format is a resolved (backend, container) pair.
type Format = format.Format

// Job is one requested operation. The pipeline treats it as immutable.
type Job struct {
	Mode Mode
	// Input is the file or directory to archive, or the archive to extract.
	Input string
	// Output is the archive to create, or the directory to extract into.
	// An empty extract output means the current directory.
	Output string
	// Overwrite allows replacing existing output files.
	Overwrite bool
	// Level is the codec level for archiving. Zero selects the codec default.
	Level int
	// Progress enables progress sampling.
	Progress bool
	// Benchmark requests a BenchmarkResult.
	Benchmark bool
}

// NewJob builds a job and checks it can run: paths are present and the
// archive name resolves to a known format. Knobs such as Overwrite are set
// on the returned value.
func NewJob(mode Mode, input, output string) (Job, error) {
	j := Job{Mode: mode, Input: input, Output: output}
	if err := j.validate(); err != nil {
		return Job{}, err
	}
	if _, err := j.Format(); err != nil {
		return Job{}, err
	}
	return j, nil
}

// ArchiveName returns the path whose extension selects the format: the
// output when archiving, the input when extracting.
func (j Job) ArchiveName() string {
	if j.Mode == Extract {
		return j.Input
	}
	return j.Output
}

// Format resolves the backend and container mode from ArchiveName.
func (j Job) Format() (Format, error) {
	return format.Resolve(j.ArchiveName())
}

func (j Job) validate() error {
	if j.Mode != Archive && j.Mode != Extract {
		return newError(ErrInvalidConfig, "validate job", "", fmt.Errorf("unknown mode %d", j.Mode))
	}
	if j.Input == "" {
		return newError(ErrInvalidConfig, "validate job", "", errors.New("no input path"))
	}
	if j.Mode == Archive && j.Output == "" {
		return newError(ErrInvalidConfig, "validate job", "", errors.New("no output path"))
	}
	return nil
}

// outputDir returns the extraction directory.
func (j Job) outputDir() string {
	if j.Output == "" {
		return "."
	}
	return j.Output
}
