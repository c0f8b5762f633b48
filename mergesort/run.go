package mergesort

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Run is a finite ascending sequence consumed in forward order. Next returns
// ok=false once the run is exhausted.
type Run[T any] interface {
	Next() (v T, ok bool, err error)
}

// SliceRun is a Run over an in-memory sorted slice.
type SliceRun[T any] struct {
	values []T
	pos    int
}

// NewSliceRun returns a run over values, which must be sorted.
func NewSliceRun[T any](values []T) *SliceRun[T] {
	return &SliceRun[T]{values: values}
}

func (r *SliceRun[T]) Next() (T, bool, error) {
	if r.pos >= len(r.values) {
		var zero T
		return zero, false, nil
	}
	v := r.values[r.pos]
	r.pos++
	return v, true, nil
}

// Reset restarts the run.
func (r *SliceRun[T]) Reset() { r.pos = 0 }

// RecordCodec encodes values as fixed-width records.
type RecordCodec[T any] struct {
	Size   int
	Encode func(dst []byte, v T)
	Decode func(src []byte) T
}

// Int64Codec stores int64 values as 8-byte little-endian records.
var Int64Codec = RecordCodec[int64]{
	Size:   8,
	Encode: func(dst []byte, v int64) { binary.LittleEndian.PutUint64(dst, uint64(v)) },
	Decode: func(src []byte) int64 { return int64(binary.LittleEndian.Uint64(src)) },
}

// ErrTruncatedRun is returned when a run ends inside a record.
var ErrTruncatedRun = errors.New("run ends mid-record")

// WriteRun writes values as records to w. values must be sorted.
func WriteRun[T any](w io.Writer, values []T, codec RecordCodec[T]) error {
	bw := bufio.NewWriter(w)
	rec := make([]byte, codec.Size)
	for _, v := range values {
		codec.Encode(rec, v)
		if _, err := bw.Write(rec); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReaderRun streams records from a reader.
type ReaderRun[T any] struct {
	r     *bufio.Reader
	codec RecordCodec[T]
	rec   []byte
	done  bool
}

// NewReaderRun returns a run reading records of codec from r.
func NewReaderRun[T any](r io.Reader, codec RecordCodec[T]) *ReaderRun[T] {
	return &ReaderRun[T]{r: bufio.NewReader(r), codec: codec, rec: make([]byte, codec.Size)}
}

func (r *ReaderRun[T]) Next() (T, bool, error) {
	var zero T
	if r.done {
		return zero, false, nil
	}
	n, err := io.ReadFull(r.r, r.rec)
	switch {
	case errors.Is(err, io.EOF):
		r.done = true
		return zero, false, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		r.done = true
		return zero, false, fmt.Errorf("%w: %d trailing bytes", ErrTruncatedRun, n)
	case err != nil:
		return zero, false, err
	}
	return r.codec.Decode(r.rec), true, nil
}
