// Package dtype describes fixed-width column element types and the row
// buffers that carry them.
//
// Every row of a column occupies exactly ElementType.Width bytes. Numeric
// kinds are stored little-endian; Bytes and Text kinds are zero-padded blobs
// of the declared width (Text holds UTF-8 and strips the padding on decode).
//
// An Array is a container of rows. Arrays obtained with Array.At are scalars:
// they hold a single row by value and cannot be used as a destination buffer.
//
//	a := dtype.FromSlice([]int64{1, 2, 3})
//	v, _ := dtype.Values[int64](a.Slice(1, 3)) // [2 3]
//
//	names := dtype.FromStrings(8, []string{"alpha", "beta"})
//	s, _ := names.Strings()
package dtype
