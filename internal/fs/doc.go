// Package fs abstracts the files a column owns so that storage failures can
// be injected in tests.
//
//   - [LocalFS] is the production implementation backed by package os.
//   - [FaultyFS] wraps another FileSystem and fails writes, syncs, reads or
//     closes according to per-file rules.
//
// Column data and directory files are written with positional writes
// ([File.WriteAt]), so the fault rules count bytes across Write and WriteAt.
//
// Operations take no context.Context: local file I/O cannot be interrupted at
// the syscall level. Remote chunk payloads go through package blobstore,
// which does.
package fs
