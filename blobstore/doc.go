// Package blobstore stores chunk payloads that live outside a column's data
// file.
//
// A column configured with an external store writes selected chunks as
// individual immutable blobs. Implementations must be safe for concurrent
// use.
//
// Built-in implementations:
//
//   - [LocalStore]: one file per blob in a directory, read through mmap
//   - [MemoryStore]: in-process map, for tests
//   - s3.Store: Amazon S3 (package blobstore/s3)
//   - minio.Store: MinIO and other S3-compatible services (package blobstore/minio)
package blobstore
