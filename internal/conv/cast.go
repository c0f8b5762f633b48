package conv

import (
	"fmt"
	"math"
)

// Int64ToInt converts a row count or offset read from disk to int.
func Int64ToInt(v int64) (int, error) {
	if v < math.MinInt || v > math.MaxInt {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int", v)
	}
	return int(v), nil
}

// IntToUint32 converts int to uint32 safely.
func IntToUint32(v int) (uint32, error) {
	if v < 0 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to uint32 (negative)", v)
	}
	if uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to uint32 (too large)", v)
	}
	return uint32(v), nil
}

// Uint64ToInt64 converts an on-disk unsigned field to int64 safely.
func Uint64ToInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int64 (too large)", v)
	}
	return int64(v), nil
}

// ByteSize returns nrows*width as an int, failing when the product does not
// fit or either operand is negative.
func ByteSize(nrows int64, width int) (int, error) {
	if nrows < 0 || width < 0 {
		return 0, fmt.Errorf("integer overflow: negative size %d x %d", nrows, width)
	}
	if width != 0 && nrows > int64(math.MaxInt/width) {
		return 0, fmt.Errorf("integer overflow: %d rows of %d bytes", nrows, width)
	}
	return int(nrows) * width, nil
}
