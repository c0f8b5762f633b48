package indexset

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/hupe1980/colstore/dtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceIntersect(a, b []int64) []int64 {
	in := make(map[int64]bool, len(b))
	for _, v := range b {
		in[v] = true
	}
	out := []int64{}
	for _, v := range a {
		if in[v] {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func referenceUnion(a, b []int64) []int64 {
	out := append(slices.Clone(a), b...)
	slices.Sort(out)
	return slices.Compact(out)
}

func randomValues(r *rand.Rand, n int, lo, hi int64) []int64 {
	v := make([]int64, n)
	for i := range v {
		v[i] = lo + r.Int64N(hi-lo)
	}
	return v
}

func TestNew(t *testing.T) {
	in := []int64{3, 1, 2}
	s := New(in)
	in[0] = 99
	assert.Equal(t, []int64{3, 1, 2}, s.Values())
	assert.False(t, s.IsSorted())
	assert.False(t, s.IsChecked())

	assert.True(t, New(nil).IsSorted())
	assert.True(t, New([]int64{-4}).IsSorted())
	assert.True(t, New([]int64{1, 2}, WithSorted(), WithChecked()).IsChecked())

	f := From([]uint16{5, 4})
	assert.Equal(t, []int64{5, 4}, f.Values())

	assert.Equal(t, []int64{2, 3, 4}, Range(2, 5).Values())
	assert.Equal(t, 0, Range(5, 2).Len())
}

func TestSetAlgebra(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		lo := int64(0)
		if i%2 == 1 {
			lo = -20 // exercises the path without bitmaps
		}
		a := randomValues(r, r.IntN(40), lo, 30)
		b := randomValues(r, r.IntN(40), lo, 30)
		sa, sb := New(a), New(b)

		and, err := sa.Intersect(sb)
		require.NoError(t, err)
		assert.True(t, and.IsSorted())
		assert.Equal(t, referenceIntersect(a, b), nonNil(and.Values()), "a=%v b=%v", a, b)

		or, err := sa.Union(sb)
		require.NoError(t, err)
		assert.True(t, or.IsSorted())
		assert.Equal(t, referenceUnion(a, b), nonNil(or.Values()), "a=%v b=%v", a, b)

		// Operands are not modified.
		assert.Equal(t, a, sa.Values())
	}
}

func nonNil(v []int64) []int64 {
	if v == nil {
		return []int64{}
	}
	return v
}

func TestSetAlgebraArray(t *testing.T) {
	a := New([]int64{5, 1, 5, 3})
	b := New([]int64{3, 9, 5})

	and, err := a.Intersect(b)
	require.NoError(t, err)
	got, err := dtype.Values[int64](and.Array())
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5}, got)

	or, err := a.Union(b)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 5, 9}, or.Values())
}

func TestTypeDiscipline(t *testing.T) {
	a := New([]int64{1})
	_, err := a.Intersect(nil)
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.ErrorIs(t, err, dtype.ErrTypeMismatch)

	_, err = a.Union(nil)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestMinMaxUsesCachedPermutation(t *testing.T) {
	s := New([]int64{7, -2, 9, 0, 9})
	lo, hi, err := s.MinMax()
	require.NoError(t, err)
	assert.Equal(t, int64(-2), lo)
	assert.Equal(t, int64(9), hi)

	// The entries keep their order; the permutation is cached.
	assert.False(t, s.IsSorted())
	assert.Equal(t, []int64{7, -2, 9, 0, 9}, s.Values())
	assert.Equal(t, []int{1, 3, 0, 2, 4}, s.SortIndex())

	s.Sort()
	assert.True(t, s.IsSorted())
	assert.Equal(t, []int64{-2, 0, 7, 9, 9}, s.Values())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, s.SortIndex())

	_, _, err = New(nil).MinMax()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestSortIsIdempotent(t *testing.T) {
	s := New([]int64{4, 2, 8, 2})
	s.Sort()
	want := s.Values()
	lo, hi, err := s.MinMax()
	require.NoError(t, err)

	s.Sort()
	assert.Equal(t, want, s.Values())
	lo2, hi2, err := s.MinMax()
	require.NoError(t, err)
	assert.Equal(t, lo, lo2)
	assert.Equal(t, hi, hi2)
}

func TestCheckedFlag(t *testing.T) {
	a := New([]int64{1, 2}, WithChecked())
	b := New([]int64{2, 3})

	and, err := a.Intersect(b)
	require.NoError(t, err)
	assert.True(t, and.IsChecked())

	or, err := a.Union(b)
	require.NoError(t, err)
	assert.False(t, or.IsChecked())

	b.SetChecked(true)
	or, err = a.Union(b)
	require.NoError(t, err)
	assert.True(t, or.IsChecked())
}
