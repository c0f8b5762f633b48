package mergesort

import (
	"container/heap"
	"iter"
)

// Compile time check to ensure runHeap satisfies the heap interface.
var _ heap.Interface = (*runHeap[int])(nil)

type head[T any] struct {
	value T
	run   int
}

// runHeap orders run heads by value, then by run index.
type runHeap[T any] struct {
	items []head[T]
	cmp   func(a, b T) int
}

func (h *runHeap[T]) Len() int { return len(h.items) }

func (h *runHeap[T]) Less(i, j int) bool {
	if c := h.cmp(h.items[i].value, h.items[j].value); c != 0 {
		return c < 0
	}
	return h.items[i].run < h.items[j].run
}

func (h *runHeap[T]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *runHeap[T]) Push(x any) { h.items = append(h.items, x.(head[T])) }

func (h *runHeap[T]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// Merge returns the k-way merge of runs ordered by cmp. Duplicates are kept
// and equal values are emitted in run order. A run error is yielded once and
// ends the sequence. Each run is pulled only as the merge advances.
func Merge[T any](runs []Run[T], cmp func(a, b T) int) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		h := &runHeap[T]{items: make([]head[T], 0, len(runs)), cmp: cmp}
		for i, r := range runs {
			v, ok, err := r.Next()
			if err != nil {
				yield(zero, err)
				return
			}
			if ok {
				h.items = append(h.items, head[T]{value: v, run: i})
			}
		}
		heap.Init(h)

		for h.Len() > 0 {
			top := h.items[0]
			if !yield(top.value, nil) {
				return
			}
			v, ok, err := runs[top.run].Next()
			if err != nil {
				yield(zero, err)
				return
			}
			if ok {
				h.items[0].value = v
				heap.Fix(h, 0)
			} else {
				heap.Pop(h)
			}
		}
	}
}

// Collect drains a merged sequence into a slice.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for v, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}
