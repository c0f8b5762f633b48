package dtype

import (
	"bytes"
	"encoding/binary"
	"math"
)

// AppendKey appends an order-preserving encoding of row to dst.
//
// Keys of the same element type compare with bytes.Compare in the same order
// as the decoded values: signed integers have their sign bit flipped, floats
// are mapped so that negative values sort below positive ones, -0 and +0
// share a key and every NaN sorts last, and blobs are compared byte-wise.
func AppendKey(t ElementType, dst, row []byte) []byte {
	switch t.Kind {
	case Int8:
		return append(dst, row[0]^0x80)
	case Uint8:
		return append(dst, row[0])
	case Int16:
		return binary.BigEndian.AppendUint16(dst, binary.LittleEndian.Uint16(row)^0x8000)
	case Uint16:
		return binary.BigEndian.AppendUint16(dst, binary.LittleEndian.Uint16(row))
	case Int32:
		return binary.BigEndian.AppendUint32(dst, binary.LittleEndian.Uint32(row)^0x80000000)
	case Uint32:
		return binary.BigEndian.AppendUint32(dst, binary.LittleEndian.Uint32(row))
	case Int64:
		return binary.BigEndian.AppendUint64(dst, binary.LittleEndian.Uint64(row)^(1<<63))
	case Uint64:
		return binary.BigEndian.AppendUint64(dst, binary.LittleEndian.Uint64(row))
	case Float32:
		u := binary.LittleEndian.Uint32(row)
		switch {
		case u&0x7fffffff > 0x7f800000: // NaN
			u = math.MaxUint32
		case u&0x7fffffff == 0:
			u = 0x80000000
		case u&0x80000000 != 0:
			u = ^u
		default:
			u |= 0x80000000
		}
		return binary.BigEndian.AppendUint32(dst, u)
	case Float64:
		u := binary.LittleEndian.Uint64(row)
		switch {
		case u&^(1<<63) > 0x7ff0000000000000: // NaN
			u = math.MaxUint64
		case u&^(1<<63) == 0:
			u = 1 << 63
		case u&(1<<63) != 0:
			u = ^u
		default:
			u |= 1 << 63
		}
		return binary.BigEndian.AppendUint64(dst, u)
	default:
		return append(dst, row...)
	}
}

// KeyWidth returns the size of a key produced by AppendKey.
func KeyWidth(t ElementType) int { return t.Width }

// Compare orders two rows of type t the same way their keys do.
func Compare(t ElementType, a, b []byte) int {
	var ka, kb [8]byte
	if t.Kind.IsNumeric() {
		return bytes.Compare(AppendKey(t, ka[:0], a), AppendKey(t, kb[:0], b))
	}
	return bytes.Compare(a, b)
}
