package dtype

import (
	"bytes"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want ElementType
	}{
		{"i8", Int64Type},
		{"<i4", Int32Type},
		{"u2", Uint16Type},
		{"f4", Float32Type},
		{"float64", Float64Type},
		{"S5", FixedBytes(5)},
		{"U3", FixedText(12)},
		{"text[7]", FixedText(7)},
		{"bytes[2]", FixedBytes(2)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "i3", "f2", "x8", "text[0]", "S"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidType, bad)
	}
}

func TestElementTypeString(t *testing.T) {
	assert.Equal(t, "int64", Int64Type.String())
	assert.Equal(t, "text[3]", FixedText(3).String())

	for _, et := range []ElementType{Int8Type, Uint64Type, Float32Type, FixedBytes(4), FixedText(9)} {
		got, err := Parse(et.String())
		require.NoError(t, err)
		assert.Equal(t, et, got)
	}
}

func TestNumericValues(t *testing.T) {
	in := []int64{-3, 0, 7, math.MaxInt64, math.MinInt64}
	a := FromSlice(in)
	assert.Equal(t, Int64Type, a.Type())
	assert.Equal(t, len(in), a.Len())

	out, err := Values[int64](a)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = Values[float64](a)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	f := FromSlice([]float32{1.5, -2.25})
	fv, err := Values[float32](f)
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, -2.25}, fv)

	u := FromSlice([]uint8{0, 255})
	uv, err := Values[uint8](u)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 255}, uv)
}

type rowID int32

func TestNamedNumericType(t *testing.T) {
	assert.Equal(t, Int32, KindOf[rowID]())
	a := FromSlice([]rowID{4, -4})
	v, err := Values[int32](a)
	require.NoError(t, err)
	assert.Equal(t, []int32{4, -4}, v)
}

func TestScalarAndSlice(t *testing.T) {
	a := FromSlice([]int16{10, 20, 30, 40})

	s := a.At(2)
	assert.True(t, s.IsScalar())
	assert.Equal(t, 1, s.Len())
	v, err := Values[int16](s)
	require.NoError(t, err)
	assert.Equal(t, []int16{30}, v)

	// A scalar holds a copy.
	s.Bytes()[0] = 0
	v, _ = Values[int16](a.Slice(2, 3))
	assert.Equal(t, []int16{30}, v)

	view := a.Slice(1, 3)
	assert.False(t, view.IsScalar())
	assert.Equal(t, 2, view.Len())
	view.Row(0)[0] = 21
	v, _ = Values[int16](a)
	assert.Equal(t, []int16{10, 21, 30, 40}, v)
}

func TestStrings(t *testing.T) {
	a := FromStrings(3, []string{"0", "12", "345", "6789"})
	assert.Equal(t, FixedText(3), a.Type())
	s, err := a.Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "12", "345", "678"}, s)

	// Truncation never splits a rune.
	u := FromStrings(4, []string{"aé€"})
	s, err = u.Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"aé"}, s)

	_, err = FromSlice([]int8{1}).Strings()
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestWrapAndConcat(t *testing.T) {
	_, err := Wrap(Int32Type, make([]byte, 7))
	assert.Error(t, err)

	a, err := Wrap(Int32Type, make([]byte, 8))
	require.NoError(t, err)
	assert.Equal(t, 2, a.Len())

	c, err := Concat(FromSlice([]int32{1}), FromSlice([]int32{2, 3}))
	require.NoError(t, err)
	v, _ := Values[int32](c)
	assert.Equal(t, []int32{1, 2, 3}, v)

	_, err = Concat(FromSlice([]int32{1}), FromSlice([]int64{2}))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestAppendKeyOrdering(t *testing.T) {
	floats := []float64{3.5, -1, math.Inf(-1), 0, -0.5, math.Inf(1), math.NaN(), 2}
	a := FromSlice(floats)
	keys := make([][]byte, a.Len())
	for i := range keys {
		keys[i] = AppendKey(a.Type(), nil, a.Row(i))
	}
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return bytes.Compare(keys[idx[i]], keys[idx[j]]) < 0 })

	got := make([]float64, len(idx))
	for i, j := range idx {
		got[i] = floats[j]
	}
	assert.Equal(t, []float64{math.Inf(-1), -1, -0.5, 0, 2, 3.5, math.Inf(1)}, got[:7])
	assert.True(t, math.IsNaN(got[7]))

	ints := FromSlice([]int32{5, -7, 0, math.MinInt32})
	assert.Equal(t, -1, Compare(ints.Type(), ints.Row(1), ints.Row(0)))
	assert.Equal(t, -1, Compare(ints.Type(), ints.Row(3), ints.Row(1)))
	assert.Equal(t, 0, Compare(ints.Type(), ints.Row(2), ints.Row(2)))
}

func TestAppendKeySignedZeroAndNaN(t *testing.T) {
	negNaN64 := math.Float64frombits(math.Float64bits(math.NaN()) | 1<<63)
	f64 := FromSlice([]float64{math.Copysign(0, -1), 0, negNaN64, math.NaN(), math.Inf(1), -5})
	key := func(a Array, i int) []byte { return AppendKey(a.Type(), nil, a.Row(i)) }

	assert.Equal(t, key(f64, 1), key(f64, 0))
	assert.Equal(t, key(f64, 3), key(f64, 2))
	assert.Equal(t, 1, bytes.Compare(key(f64, 2), key(f64, 4)))
	assert.Equal(t, -1, bytes.Compare(key(f64, 5), key(f64, 0)))

	negNaN32 := math.Float32frombits(math.Float32bits(float32(math.NaN())) | 1<<31)
	f32 := FromSlice([]float32{float32(math.Copysign(0, -1)), 0, negNaN32, float32(math.Inf(1))})
	assert.Equal(t, 0, Compare(f32.Type(), f32.Row(0), f32.Row(1)))
	assert.Equal(t, 1, Compare(f32.Type(), f32.Row(2), f32.Row(3)))
}
