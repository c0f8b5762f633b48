package colstore

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/hupe1980/colstore/chunkdir"
	"github.com/hupe1980/colstore/compression"
	"github.com/hupe1980/colstore/dtype"
	"github.com/hupe1980/colstore/indexset"
	"github.com/hupe1980/colstore/internal/flock"
)

// Error kinds. Every error of the taxonomy below that addresses rows or
// buffers matches exactly one of them, so callers can branch on the kind
// without knowing the precise cause.
var (
	// ErrIndex is the kind of bounds-style errors.
	ErrIndex = errors.New("index error")

	// ErrValue is the kind of value-style errors.
	ErrValue = errors.New("value error")
)

// kindError is a sentinel error that also matches its kind.
type kindError struct {
	msg   string
	kind  error
	alias error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool {
	return target == e.kind || (e.alias != nil && target == e.alias)
}

var (
	// ErrPermission is returned by mutating calls on a read-only column or
	// metadata object. It is fs.ErrPermission.
	ErrPermission = fs.ErrPermission

	// ErrOutOfRange is returned when a row or slice target is outside
	// [0, nrows) after normalization. It is an ErrIndex.
	ErrOutOfRange error = &kindError{msg: "row index out of range", kind: ErrIndex}

	// ErrSizeMismatch is matched by every *SizeMismatchError.
	ErrSizeMismatch = errors.New("size mismatch")

	// ErrValueSemantics is returned when a scalar is passed where a writable
	// one-element container is required. It is an ErrValue.
	ErrValueSemantics error = &kindError{msg: "scalar destination cannot receive rows", kind: ErrValue}

	// ErrTypeMismatch is returned when an element type or index set operand
	// does not match. It is an ErrValue and matches dtype.ErrTypeMismatch.
	ErrTypeMismatch error = &kindError{msg: "type mismatch", kind: ErrValue, alias: dtype.ErrTypeMismatch}

	// ErrCorruptChunk is returned when a chunk does not decompress to the
	// expected size or its stream is malformed.
	ErrCorruptChunk = compression.ErrCorruptChunk

	// ErrCorruptDirectory is returned when the chunk directory file is
	// malformed.
	ErrCorruptDirectory = chunkdir.ErrCorrupt

	// ErrIOFault is matched by every *IOError.
	ErrIOFault = chunkdir.ErrIOFault

	// ErrLocked is returned by Open with WithWriterLock when another writer
	// holds the column.
	ErrLocked = flock.ErrLocked

	// ErrClosed is returned by calls on a closed column.
	ErrClosed = errors.New("column is closed")

	// ErrInvalidMode is returned for unknown open modes.
	ErrInvalidMode = errors.New("invalid open mode")
)

// IOError records a storage failure. The underlying OS error is available
// via errors.Unwrap.
type IOError = chunkdir.IOError

// SizeMismatchError is returned when a buffer or row count does not match
// the number of addressed rows. It is an ErrValue on read paths. On write
// and slice-assignment paths it is an ErrIndex and matches ErrOutOfRange.
type SizeMismatchError struct {
	Want  int64
	Got   int64
	Write bool
}

func (e *SizeMismatchError) Error() string {
	if e.Write {
		return fmt.Sprintf("size mismatch: cannot assign %d rows to %d targets", e.Got, e.Want)
	}
	return fmt.Sprintf("size mismatch: buffer holds %d rows, %d addressed", e.Got, e.Want)
}

func (e *SizeMismatchError) Is(target error) bool {
	switch target {
	case ErrSizeMismatch:
		return true
	case ErrIndex, ErrOutOfRange:
		return e.Write
	case ErrValue:
		return !e.Write
	}
	return false
}

func readSizeMismatch(want, got int) error {
	return &SizeMismatchError{Want: int64(want), Got: int64(got)}
}

func writeSizeMismatch(want, got int) error {
	return &SizeMismatchError{Want: int64(want), Got: int64(got), Write: true}
}

// translateError maps errors of the lower layers onto the taxonomy of this
// package.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, chunkdir.ErrOutOfRange) && !errors.Is(err, ErrOutOfRange) {
		return fmt.Errorf("%w: %w", ErrOutOfRange, err)
	}
	if errors.Is(err, chunkdir.ErrReadOnly) {
		return fmt.Errorf("%w: %w", ErrPermission, err)
	}
	if (errors.Is(err, dtype.ErrTypeMismatch) || errors.Is(err, indexset.ErrTypeMismatch)) && !errors.Is(err, ErrTypeMismatch) {
		return fmt.Errorf("%w: %w", ErrTypeMismatch, err)
	}
	return err
}
