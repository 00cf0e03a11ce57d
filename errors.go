package crate

import (
	"github.com/cratekit/crate/internal/errs"
)

// Error kinds. Every error returned by the pipeline matches at most one of
// them with errors.Is.
var (
	// ErrInvalidConfig indicates a bad option combination or codec parameter.
	ErrInvalidConfig = errs.ErrInvalidConfig

	// ErrPathNotFound indicates the input path does not exist.
	ErrPathNotFound = errs.ErrPathNotFound

	// ErrAlreadyExists indicates the output exists and Overwrite is not set.
	ErrAlreadyExists = errs.ErrAlreadyExists

	// ErrUnknownFormat indicates the archive name has no recognized extension.
	ErrUnknownFormat = errs.ErrUnknownFormat

	// ErrCorruptArchive indicates malformed compressed data or container headers.
	ErrCorruptArchive = errs.ErrCorruptArchive

	// ErrIOFailure indicates a filesystem read or write failed mid-stream.
	ErrIOFailure = errs.ErrIOFailure
)

// Error is a classified failure carrying the operation and path involved.
type Error = errs.Error

// KindOf returns the name of the error kind carried by err, such as
// "CorruptArchive", or "" when err is nil or unclassified.
func KindOf(err error) string {
	return errs.Name(err)
}

func newError(kind error, op, path string, err error) error {
	return errs.New(kind, op, path, err)
}
