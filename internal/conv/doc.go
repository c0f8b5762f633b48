// Package conv provides checked integer conversions for values crossing the
// on-disk boundary: directory record fields, header fields and buffer sizes
// derived from row counts.
//
// Conversions that are safe by construction (loop indices, bounded counters)
// use plain casts instead.
package conv
