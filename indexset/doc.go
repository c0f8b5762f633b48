// Package indexset provides Set, a collection of row numbers with cached
// sort order and sorted set algebra.
//
// Sets are produced by query code and consumed by the column store's
// fancy-indexed reads and writes. A Set built from user input starts
// unsorted and unchecked; intersections and unions are always sorted and
// de-duplicated.
package indexset
