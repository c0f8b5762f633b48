package colstore

import (
	"fmt"
	"strconv"
)

// Slice selects rows like a Python slice: negative bounds count from the
// end, omitted bounds default by step direction and the step may be
// negative. The zero value selects every row.
type Slice struct {
	start, stop       int64
	hasStart, hasStop bool
	step              int64 // 0 means 1
}

// All selects every row.
func All() Slice { return Slice{} }

// Range selects [start:stop].
func Range(start, stop int64) Slice {
	return Slice{start: start, stop: stop, hasStart: true, hasStop: true}
}

// NewSlice returns [start:stop:step]. A zero step is an ErrValue.
func NewSlice(start, stop, step int64) (Slice, error) {
	if step == 0 {
		return Slice{}, fmt.Errorf("%w: slice step cannot be zero", ErrValue)
	}
	return Range(start, stop).By(step), nil
}

// From sets the start bound.
func (s Slice) From(start int64) Slice {
	s.start, s.hasStart = start, true
	return s
}

// To sets the stop bound.
func (s Slice) To(stop int64) Slice {
	s.stop, s.hasStop = stop, true
	return s
}

// By sets the step. A zero step resets it to 1.
func (s Slice) By(step int64) Slice {
	s.step = step
	return s
}

// Step returns the effective step.
func (s Slice) Step() int64 {
	if s.step == 0 {
		return 1
	}
	return s.step
}

// Indices resolves the slice against n rows and returns the first row, the
// step and the number of selected rows.
func (s Slice) Indices(n int64) (start, step, length int64) {
	step = s.Step()
	lower, upper := int64(0), n
	if step < 0 {
		lower, upper = -1, n-1
	}
	clamp := func(v int64, set bool, def int64) int64 {
		if !set {
			return def
		}
		if v < 0 {
			v += n
			if v < lower {
				return lower
			}
			return v
		}
		return min(v, upper)
	}

	var stop int64
	if step > 0 {
		start = clamp(s.start, s.hasStart, lower)
		stop = clamp(s.stop, s.hasStop, upper)
		if stop > start {
			length = (stop-start-1)/step + 1
		}
	} else {
		start = clamp(s.start, s.hasStart, upper)
		stop = clamp(s.stop, s.hasStop, lower)
		if start > stop {
			length = (start-stop-1)/(-step) + 1
		}
	}
	return start, step, length
}

func (s Slice) String() string {
	f := func(v int64, set bool) string {
		if !set {
			return ""
		}
		return strconv.FormatInt(v, 10)
	}
	out := "[" + f(s.start, s.hasStart) + ":" + f(s.stop, s.hasStop)
	if s.step != 0 {
		out += ":" + strconv.FormatInt(s.step, 10)
	}
	return out + "]"
}
