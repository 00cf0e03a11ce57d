// Package errs defines the error taxonomy shared by every pipeline stage.
//
// Errors are classified at the lowest layer that can observe them and are
// never reclassified on the way up: a wrapped error keeps the kind assigned
// where it was first detected.
package errs

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	// ErrInvalidConfig indicates a bad option combination or codec parameter.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrPathNotFound indicates the input path does not exist.
	ErrPathNotFound = errors.New("path not found")

	// ErrAlreadyExists indicates the output exists and overwrite was not requested.
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnknownFormat indicates the archive name has no recognized extension.
	ErrUnknownFormat = errors.New("unknown format")

	// ErrCorruptArchive indicates malformed compressed data or container headers.
	ErrCorruptArchive = errors.New("corrupt archive")

	// ErrIOFailure indicates a filesystem read or write failed mid-stream.
	ErrIOFailure = errors.New("i/o failure")
)

var kindNames = map[error]string{
	ErrInvalidConfig:  "InvalidConfig",
	ErrPathNotFound:   "PathNotFound",
	ErrAlreadyExists:  "AlreadyExists",
	ErrUnknownFormat:  "UnknownFormat",
	ErrCorruptArchive: "CorruptArchive",
	ErrIOFailure:      "IOFailure",
}

// kinds lists the taxonomy in a fixed order so KindOf is deterministic.
var kinds = []error{
	ErrInvalidConfig,
	ErrPathNotFound,
	ErrAlreadyExists,
	ErrUnknownFormat,
	ErrCorruptArchive,
	ErrIOFailure,
}

// Error is a classified failure.
type Error struct {
	Kind error  // One of the Err* kinds.
	Op   string // Operation that failed, e.g. "open", "decode".
	Path string // Filesystem path involved, if any.
	Err  error  // Underlying cause, may be nil.
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" %q", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New returns a classified error.
func New(kind error, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Classified reports whether err already carries a taxonomy kind.
func Classified(err error) bool {
	return KindOf(err) != nil
}

// KindOf returns the taxonomy kind carried by err, or nil.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Name returns the taxonomy name of err ("CorruptArchive", ...), or "" if
// err is unclassified.
func Name(err error) string {
	return kindNames[KindOf(err)]
}

// Tag classifies err as kind unless it is nil, already classified or a
// context cancellation.
func Tag(kind error, op, path string, err error) error {
	if err == nil || Classified(err) || Cancelled(err) {
		return err
	}
	return New(kind, op, path, err)
}

// Cancelled reports whether err stems from a cancelled or expired context.
func Cancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Corrupt tags err as ErrCorruptArchive unless already classified.
func Corrupt(op string, err error) error {
	return Tag(ErrCorruptArchive, op, "", err)
}

// IO tags err as ErrIOFailure unless already classified.
func IO(op, path string, err error) error {
	return Tag(ErrIOFailure, op, path, err)
}
