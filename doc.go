// Package colstore provides a chunked, compressed, columnar on-disk array
// store for Go.
//
// Each column is an independent pair of files: a data file holding
// compressed chunks of fixed-width rows and a chunk directory mapping row
// ranges to byte ranges. Rows are read and written at row granularity;
// every access decompresses only the chunks it touches.
//
// # Quick Start
//
//	ctx := context.Background()
//	col, _ := colstore.Open(ctx, "./data/price", dtype.Float64Type, colstore.ModeReadWrite)
//	defer col.Close()
//
//	_ = col.Append(ctx, dtype.FromSlice([]float64{1.5, 2.5, 3.5}))
//
//	rows, _ := col.ReadSlice(ctx, colstore.All().By(-1))          // reversed
//	picked, _ := col.ReadRows(ctx, indexset.New([]int64{2, -3}))  // caller order
//	_ = col.UpdateRow(ctx, 0, dtype.Scalar(9.5))
//
// # Files
//
// A column named "price" consists of
//
//	price.array    compressed chunk payloads
//	price.chunks   header and one 33-byte record per chunk
//	price.meta     optional JSON attributes (see Column.Meta)
//	price.sorted.* optional sort index (see Column.BuildSortIndex)
//
// The chunk header records the element type, codec and chunk size, so a
// reopened column ignores the compression options passed to Open.
//
// # Durability
//
// Rewritten chunks are never updated in place. The new payload is appended
// to the data file (or stored as a new external blob) and synced before the
// directory record is overwritten, so a crash leaves either the old or the
// new chunk visible, never a partial one.
//
// # Errors
//
// Errors match one of two kinds: ErrIndex for bounds-style failures
// (ErrOutOfRange, size mismatches on write paths) and ErrValue for
// value-style failures (ErrTypeMismatch, ErrValueSemantics, size mismatches
// on read paths). Mutations of a read-only column fail with ErrPermission
// and storage failures with an *IOError matching ErrIOFault.
//
// # Concurrency
//
// Any number of readers may open a column read-only. A single writer per
// column is a contract of the caller; WithWriterLock turns it into an
// advisory file lock.
package colstore
