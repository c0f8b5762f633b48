package chunkdir

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned when a row or row range is outside the
	// rows held by the directory.
	ErrOutOfRange = errors.New("row index out of range")

	// ErrReadOnly is returned by mutating calls on a read-only directory.
	ErrReadOnly = errors.New("chunk directory is read-only")

	// ErrCorrupt is returned when the directory file is malformed or its
	// records violate the directory invariants.
	ErrCorrupt = errors.New("corrupt chunk directory")

	// ErrRowsMismatch is returned by Replace when the new descriptor does
	// not cover exactly the rows of the old one.
	ErrRowsMismatch = errors.New("replacement descriptor covers different rows")

	// ErrNoExternalStore is returned when an external chunk is written or
	// read without a configured blob store.
	ErrNoExternalStore = errors.New("no external chunk store configured")

	// ErrIOFault marks failures of the underlying storage.
	ErrIOFault = errors.New("storage I/O failure")
)

// IOError records a storage failure.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Is reports ErrIOFault so callers can branch on the error kind.
func (e *IOError) Is(target error) bool { return target == ErrIOFault }

func ioErr(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Path: path, Err: err}
}
