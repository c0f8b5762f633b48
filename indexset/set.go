package indexset

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/hupe1980/colstore/dtype"
)

var (
	// ErrTypeMismatch is returned when a set operation is given an operand
	// that is not an index set. It matches dtype.ErrTypeMismatch.
	ErrTypeMismatch = fmt.Errorf("%w: operand is not an index set", dtype.ErrTypeMismatch)

	// ErrEmpty is returned by MinMax on an empty set.
	ErrEmpty = errors.New("index set is empty")
)

// Integer is the constraint of the element types accepted by From.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Set is an ordered collection of row numbers.
//
// IsChecked is a caller assertion that every entry is non-negative and below
// the row count of the column it is used with. The column store skips bounds
// validation for checked sets; a wrong assertion yields undefined rows.
type Set struct {
	values  []int64
	sorted  bool
	checked bool

	mu   sync.Mutex
	perm []int // sort permutation of values, computed lazily
}

// Option configures New.
type Option func(*Set)

// WithSorted marks the input as already sorted ascending.
func WithSorted() Option {
	return func(s *Set) { s.sorted = true }
}

// WithChecked marks the input as bounds-checked.
func WithChecked() Option {
	return func(s *Set) { s.checked = true }
}

// New copies v into a new Set. Sets of at most one element are sorted.
func New(v []int64, opts ...Option) *Set {
	s := &Set{values: slices.Clone(v)}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.values) <= 1 {
		s.sorted = true
	}
	return s
}

// From converts any integer slice into a Set.
func From[T Integer](v []T, opts ...Option) *Set {
	vals := make([]int64, len(v))
	for i, x := range v {
		vals[i] = int64(x)
	}
	s := New(nil, opts...)
	s.values = vals
	s.sorted = s.sorted || len(vals) <= 1
	return s
}

// Range returns the sorted set [start, stop).
func Range(start, stop int64) *Set {
	n := max(0, stop-start)
	v := make([]int64, n)
	for i := range v {
		v[i] = start + int64(i)
	}
	return &Set{values: v, sorted: true}
}

// Len returns the number of entries, duplicates included.
func (s *Set) Len() int { return len(s.values) }

// At returns entry i.
func (s *Set) At(i int) int64 { return s.values[i] }

// Values returns a copy of the entries in their current order.
func (s *Set) Values() []int64 { return slices.Clone(s.values) }

// Array returns the entries as an int64 array.
func (s *Set) Array() dtype.Array { return dtype.FromSlice(s.values) }

// IsSorted reports whether the entries are in ascending order.
func (s *Set) IsSorted() bool { return s.sorted }

// IsChecked reports whether the entries were bounds-checked upstream.
func (s *Set) IsChecked() bool { return s.checked }

// SetChecked records whether the entries are bounds-checked.
func (s *Set) SetChecked(v bool) { s.checked = v }

// Sort sorts the entries in place. It is a no-op on a sorted set.
func (s *Set) Sort() {
	if s.sorted {
		return
	}
	slices.Sort(s.values)
	s.sorted = true

	s.mu.Lock()
	s.perm = nil
	s.mu.Unlock()
}

// SortIndex returns the permutation that orders the entries ascending. Equal
// entries keep their relative order. The permutation is cached until Sort.
func (s *Set) SortIndex() []int {
	return slices.Clone(s.sortIndex())
}

func (s *Set) sortIndex() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.perm != nil {
		return s.perm
	}
	perm := make([]int, len(s.values))
	for i := range perm {
		perm[i] = i
	}
	if !s.sorted {
		slices.SortStableFunc(perm, func(a, b int) int {
			switch {
			case s.values[a] < s.values[b]:
				return -1
			case s.values[a] > s.values[b]:
				return 1
			}
			return 0
		})
	}
	s.perm = perm
	return perm
}

// MinMax returns the smallest and largest entry. On an unsorted set the sort
// permutation is computed once and reused; the entries are not reordered.
func (s *Set) MinMax() (int64, int64, error) {
	if len(s.values) == 0 {
		return 0, 0, ErrEmpty
	}
	if s.sorted {
		return s.values[0], s.values[len(s.values)-1], nil
	}
	perm := s.sortIndex()
	return s.values[perm[0]], s.values[perm[len(perm)-1]], nil
}

// Intersect returns the sorted, de-duplicated intersection of s and other.
func (s *Set) Intersect(other *Set) (*Set, error) {
	if other == nil {
		return nil, ErrTypeMismatch
	}
	checked := s.checked || other.checked
	if s.nonNegative() && other.nonNegative() {
		bm := s.bitmap()
		bm.And(other.bitmap())
		return fromBitmap(bm, checked), nil
	}
	a, b := s.unique(), other.unique()
	out := make([]int64, 0, min(len(a), len(b)))
	for i, j := 0, 0; i < len(a) && j < len(b); {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return &Set{values: out, sorted: true, checked: checked}, nil
}

// Union returns the sorted, de-duplicated union of s and other.
func (s *Set) Union(other *Set) (*Set, error) {
	if other == nil {
		return nil, ErrTypeMismatch
	}
	checked := s.checked && other.checked
	if s.nonNegative() && other.nonNegative() {
		bm := s.bitmap()
		bm.Or(other.bitmap())
		return fromBitmap(bm, checked), nil
	}
	out := append(s.unique(), other.unique()...)
	slices.Sort(out)
	return &Set{values: slices.Compact(out), sorted: true, checked: checked}, nil
}

func (s *Set) String() string {
	return fmt.Sprintf("IndexSet(len=%d, sorted=%t, checked=%t)", len(s.values), s.sorted, s.checked)
}

func (s *Set) nonNegative() bool {
	if s.sorted {
		return len(s.values) == 0 || s.values[0] >= 0
	}
	for _, v := range s.values {
		if v < 0 {
			return false
		}
	}
	return true
}

func (s *Set) bitmap() *roaring64.Bitmap {
	bm := roaring64.New()
	for _, v := range s.values {
		bm.Add(uint64(v))
	}
	return bm
}

func fromBitmap(bm *roaring64.Bitmap, checked bool) *Set {
	u := bm.ToArray()
	v := make([]int64, len(u))
	for i, x := range u {
		v[i] = int64(x)
	}
	return &Set{values: v, sorted: true, checked: checked}
}

// unique returns the sorted distinct entries without modifying s.
func (s *Set) unique() []int64 {
	v := slices.Clone(s.values)
	if !s.sorted {
		slices.Sort(v)
	}
	return slices.Compact(v)
}
