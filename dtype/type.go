package dtype

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrTypeMismatch is returned when an element type does not match the
	// type expected by the receiver.
	ErrTypeMismatch = errors.New("element type mismatch")

	// ErrInvalidType is returned for malformed element type descriptions.
	ErrInvalidType = errors.New("invalid element type")
)

// Kind is the primitive kind of an element.
type Kind uint8

const (
	Invalid Kind = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Bytes // fixed-length byte blob
	Text  // fixed-length UTF-8 text, zero padded
)

var kindNames = [...]string{
	Invalid: "invalid",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
	Bytes:   "bytes",
	Text:    "text",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// IsNumeric reports whether k is an integer or floating point kind.
func (k Kind) IsNumeric() bool { return k >= Int8 && k <= Float64 }

// IsSigned reports whether k is a signed integer kind.
func (k Kind) IsSigned() bool { return k >= Int8 && k <= Int64 }

// IsFloat reports whether k is a floating point kind.
func (k Kind) IsFloat() bool { return k == Float32 || k == Float64 }

// Size returns the natural width of numeric kinds, 0 otherwise.
func (k Kind) Size() int {
	switch k {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

// ElementType is a fixed-width element descriptor.
type ElementType struct {
	Kind  Kind
	Width int
}

// Predefined numeric element types.
var (
	Int8Type    = ElementType{Kind: Int8, Width: 1}
	Int16Type   = ElementType{Kind: Int16, Width: 2}
	Int32Type   = ElementType{Kind: Int32, Width: 4}
	Int64Type   = ElementType{Kind: Int64, Width: 8}
	Uint8Type   = ElementType{Kind: Uint8, Width: 1}
	Uint16Type  = ElementType{Kind: Uint16, Width: 2}
	Uint32Type  = ElementType{Kind: Uint32, Width: 4}
	Uint64Type  = ElementType{Kind: Uint64, Width: 8}
	Float32Type = ElementType{Kind: Float32, Width: 4}
	Float64Type = ElementType{Kind: Float64, Width: 8}
)

// FixedBytes returns a byte blob type of width w.
func FixedBytes(w int) ElementType { return ElementType{Kind: Bytes, Width: w} }

// FixedText returns a UTF-8 text type of width w bytes.
func FixedText(w int) ElementType { return ElementType{Kind: Text, Width: w} }

// Validate checks that the width agrees with the kind.
func (t ElementType) Validate() error {
	switch {
	case t.Kind.IsNumeric():
		if t.Width != t.Kind.Size() {
			return fmt.Errorf("%w: %s with width %d", ErrInvalidType, t.Kind, t.Width)
		}
	case t.Kind == Bytes || t.Kind == Text:
		if t.Width <= 0 {
			return fmt.Errorf("%w: %s requires a positive width, got %d", ErrInvalidType, t.Kind, t.Width)
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidType, t.Kind)
	}
	return nil
}

func (t ElementType) String() string {
	if t.Kind == Bytes || t.Kind == Text {
		return fmt.Sprintf("%s[%d]", t.Kind, t.Width)
	}
	return t.Kind.String()
}

// Parse accepts numpy-style codes ("i8", "<f4", "u2", "S5", "U3") and the
// names produced by ElementType.String ("int64", "text[3]").
//
// Numpy "U" codes count characters; the width is reserved as 4 bytes per
// character so any UTF-8 string of that many runes fits.
func Parse(s string) (ElementType, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "<")
	s = strings.TrimPrefix(s, "|")
	if s == "" {
		return ElementType{}, fmt.Errorf("%w: empty", ErrInvalidType)
	}

	if open := strings.IndexByte(s, '['); open > 0 && strings.HasSuffix(s, "]") {
		w, err := strconv.Atoi(s[open+1 : len(s)-1])
		if err != nil {
			return ElementType{}, fmt.Errorf("%w: %q", ErrInvalidType, s)
		}
		var t ElementType
		switch s[:open] {
		case "bytes":
			t = FixedBytes(w)
		case "text":
			t = FixedText(w)
		default:
			return ElementType{}, fmt.Errorf("%w: %q", ErrInvalidType, s)
		}
		return t, t.Validate()
	}

	for k := Int8; k <= Float64; k++ {
		if s == k.String() {
			return ElementType{Kind: k, Width: k.Size()}, nil
		}
	}

	n, err := strconv.Atoi(s[1:])
	if err != nil || n <= 0 {
		return ElementType{}, fmt.Errorf("%w: %q", ErrInvalidType, s)
	}

	var t ElementType
	switch s[0] {
	case 'i':
		t = ElementType{Kind: intKind(n), Width: n}
	case 'u':
		t = ElementType{Kind: uintKind(n), Width: n}
	case 'f':
		switch n {
		case 4:
			t = Float32Type
		case 8:
			t = Float64Type
		}
	case 'S':
		t = FixedBytes(n)
	case 'U':
		t = FixedText(4 * n)
	}
	if err := t.Validate(); err != nil {
		return ElementType{}, fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

func intKind(n int) Kind {
	switch n {
	case 1:
		return Int8
	case 2:
		return Int16
	case 4:
		return Int32
	case 8:
		return Int64
	}
	return Invalid
}

func uintKind(n int) Kind {
	switch n {
	case 1:
		return Uint8
	case 2:
		return Uint16
	case 4:
		return Uint32
	case 8:
		return Uint64
	}
	return Invalid
}
