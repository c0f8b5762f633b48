// Package compression implements the chunk codec: block compression of
// fixed-width element buffers with an optional byte or bit shuffle
// pre-filter.
//
// Every compressed chunk carries a small header describing how it was
// produced, so chunks written under different configurations can coexist in
// one column.
package compression
