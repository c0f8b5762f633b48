// Package s3 stores external chunks in Amazon S3.
//
// Usage:
//
//	store, err := s3.New(ctx, "my-bucket", s3.WithPrefix("tables/events/"))
//	col, err := colstore.Open(ctx, path, dtype.Float64Type, colstore.ModeReadWrite,
//	    colstore.WithExternalStore(store, colstore.ExternalAbove(4<<20)))
//
// Reads are ranged GETs; writes go through the S3 upload manager with
// CRC32C checksums, switching to multipart uploads for large chunks.
package s3
