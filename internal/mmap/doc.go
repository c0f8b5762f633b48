// Package mmap maps files read-only into memory.
//
// It backs blobstore.LocalStore, where every external chunk is an immutable
// file read once per cache miss. Unix platforms use mmap(2) with madvise(2)
// hints; Windows uses CreateFileMapping/MapViewOfFile and ignores hints.
package mmap
