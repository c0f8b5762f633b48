// Package mergesort merges pre-sorted runs into one sorted stream.
//
// Runs are pulled one value at a time, so memory use is proportional to the
// number of runs rather than the number of values. Runs may live in memory
// (SliceRun) or in run files of fixed-width records (ReaderRun, WriteRun).
package mergesort
