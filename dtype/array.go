package dtype

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
	"unsafe"
)

// Numeric is the set of Go types that map onto numeric kinds.
type Numeric interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Array is a buffer of fixed-width rows.
//
// The zero Array is an empty container of invalid type.
type Array struct {
	typ    ElementType
	data   []byte
	scalar bool
}

// New returns a zeroed container of n rows.
func New(t ElementType, n int) Array {
	if n < 0 {
		n = 0
	}
	return Array{typ: t, data: make([]byte, n*t.Width)}
}

// Wrap returns a container over data without copying.
func Wrap(t ElementType, data []byte) (Array, error) {
	if err := t.Validate(); err != nil {
		return Array{}, err
	}
	if len(data)%t.Width != 0 {
		return Array{}, fmt.Errorf("dtype: %d bytes is not a multiple of %s width %d", len(data), t, t.Width)
	}
	return Array{typ: t, data: data}, nil
}

// Type returns the element type.
func (a Array) Type() ElementType { return a.typ }

// Len returns the number of rows.
func (a Array) Len() int {
	if a.typ.Width <= 0 {
		return 0
	}
	return len(a.data) / a.typ.Width
}

// Bytes returns the raw little-endian row bytes. The slice aliases the array.
func (a Array) Bytes() []byte { return a.data }

// IsScalar reports whether a is a by-value single row (see At).
func (a Array) IsScalar() bool { return a.scalar }

// Row returns the raw bytes of row i. The slice aliases the array.
func (a Array) Row(i int) []byte {
	w := a.typ.Width
	return a.data[i*w : (i+1)*w : (i+1)*w]
}

// At returns row i as a scalar. The scalar owns a copy of the row.
func (a Array) At(i int) Array {
	return Array{typ: a.typ, data: bytes.Clone(a.Row(i)), scalar: true}
}

// Slice returns the container view of rows [i, j).
func (a Array) Slice(i, j int) Array {
	w := a.typ.Width
	return Array{typ: a.typ, data: a.data[i*w : j*w : j*w]}
}

// Clone returns a deep copy of a.
func (a Array) Clone() Array {
	return Array{typ: a.typ, data: bytes.Clone(a.data), scalar: a.scalar}
}

// Equal reports whether a and b have the same type and row bytes.
func (a Array) Equal(b Array) bool {
	return a.typ == b.typ && bytes.Equal(a.data, b.data)
}

// Concat joins arrays of the same element type.
func Concat(arrays ...Array) (Array, error) {
	if len(arrays) == 0 {
		return Array{}, nil
	}
	t := arrays[0].typ
	n := 0
	for _, a := range arrays {
		if a.typ != t {
			return Array{}, fmt.Errorf("%w: cannot concatenate %s and %s", ErrTypeMismatch, t, a.typ)
		}
		n += len(a.data)
	}
	out := make([]byte, 0, n)
	for _, a := range arrays {
		out = append(out, a.data...)
	}
	return Array{typ: t, data: out}, nil
}

func (a Array) String() string {
	return fmt.Sprintf("Array(%s, len=%d)", a.typ, a.Len())
}

// KindOf returns the kind corresponding to T.
func KindOf[T Numeric]() Kind {
	var zero T
	switch any(zero).(type) {
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case float32:
		return Float32
	case float64:
		return Float64
	}
	// Named types fall back on their size and float-ness.
	switch unsafeSizeof(zero) {
	case 1:
		if isSigned(zero) {
			return Int8
		}
		return Uint8
	case 2:
		if isSigned(zero) {
			return Int16
		}
		return Uint16
	case 4:
		if isFloat(zero) {
			return Float32
		}
		if isSigned(zero) {
			return Int32
		}
		return Uint32
	default:
		if isFloat(zero) {
			return Float64
		}
		if isSigned(zero) {
			return Int64
		}
		return Uint64
	}
}

// FromSlice encodes numeric values into a new container.
func FromSlice[T Numeric](v []T) Array {
	k := KindOf[T]()
	t := ElementType{Kind: k, Width: k.Size()}
	data := make([]byte, len(v)*t.Width)
	for i, x := range v {
		putNumeric(k, data[i*t.Width:], x)
	}
	return Array{typ: t, data: data}
}

// Scalar returns a one-row scalar holding v.
func Scalar[T Numeric](v T) Array {
	a := FromSlice([]T{v})
	a.scalar = true
	return a
}

// Values decodes a into numeric values. The kind of T must match a's kind.
func Values[T Numeric](a Array) ([]T, error) {
	k := KindOf[T]()
	if a.typ.Kind != k {
		return nil, fmt.Errorf("%w: cannot decode %s as %s", ErrTypeMismatch, a.typ, k)
	}
	n := a.Len()
	out := make([]T, n)
	w := a.typ.Width
	for i := range out {
		out[i] = getNumeric[T](k, a.data[i*w:])
	}
	return out, nil
}

// FromStrings encodes text values of at most width bytes each. Longer
// values are truncated on a rune boundary.
func FromStrings(width int, v []string) Array {
	t := FixedText(width)
	data := make([]byte, len(v)*width)
	for i, s := range v {
		b := []byte(s)
		if len(b) > width {
			b = b[:width]
			for len(b) > 0 && !utf8.Valid(b) {
				b = b[:len(b)-1]
			}
		}
		copy(data[i*width:], b)
	}
	return Array{typ: t, data: data}
}

// Strings decodes a Text array, stripping the zero padding.
func (a Array) Strings() ([]string, error) {
	if a.typ.Kind != Text {
		return nil, fmt.Errorf("%w: cannot decode %s as text", ErrTypeMismatch, a.typ)
	}
	out := make([]string, a.Len())
	for i := range out {
		out[i] = string(bytes.TrimRight(a.Row(i), "\x00"))
	}
	return out, nil
}

// FromBytes encodes byte blobs of at most width bytes each; shorter values
// are zero padded and longer values truncated.
func FromBytes(width int, v [][]byte) Array {
	t := FixedBytes(width)
	data := make([]byte, len(v)*width)
	for i, b := range v {
		copy(data[i*width:(i+1)*width], b)
	}
	return Array{typ: t, data: data}
}

// ByteRows returns copies of each row of a Bytes or Text array.
func (a Array) ByteRows() ([][]byte, error) {
	if a.typ.Kind != Bytes && a.typ.Kind != Text {
		return nil, fmt.Errorf("%w: %s is not a blob type", ErrTypeMismatch, a.typ)
	}
	out := make([][]byte, a.Len())
	for i := range out {
		out[i] = bytes.Clone(a.Row(i))
	}
	return out, nil
}

func unsafeSizeof[T Numeric](v T) uintptr { return unsafe.Sizeof(v) }

func isSigned[T Numeric](_ T) bool {
	var zero T
	return zero-1 < zero
}

func isFloat[T Numeric](_ T) bool {
	var one T = 1
	return one/2 != 0
}

func putNumeric[T Numeric](k Kind, b []byte, x T) {
	switch k {
	case Int8, Uint8:
		b[0] = byte(int64(x))
	case Int16:
		binary.LittleEndian.PutUint16(b, uint16(int16(x)))
	case Uint16:
		binary.LittleEndian.PutUint16(b, uint16(x))
	case Int32:
		binary.LittleEndian.PutUint32(b, uint32(int32(x)))
	case Uint32:
		binary.LittleEndian.PutUint32(b, uint32(x))
	case Int64:
		binary.LittleEndian.PutUint64(b, uint64(int64(x)))
	case Uint64:
		binary.LittleEndian.PutUint64(b, uint64(x))
	case Float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(x)))
	case Float64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(float64(x)))
	}
}

func getNumeric[T Numeric](k Kind, b []byte) T {
	switch k {
	case Int8:
		return T(int8(b[0]))
	case Uint8:
		return T(b[0])
	case Int16:
		return T(int16(binary.LittleEndian.Uint16(b)))
	case Uint16:
		return T(binary.LittleEndian.Uint16(b))
	case Int32:
		return T(int32(binary.LittleEndian.Uint32(b)))
	case Uint32:
		return T(binary.LittleEndian.Uint32(b))
	case Int64:
		return T(int64(binary.LittleEndian.Uint64(b)))
	case Uint64:
		return T(binary.LittleEndian.Uint64(b))
	case Float32:
		return T(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case Float64:
		return T(math.Float64frombits(binary.LittleEndian.Uint64(b)))
	}
	return 0
}
