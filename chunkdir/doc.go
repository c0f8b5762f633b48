// Package chunkdir maintains the chunk directory of a column: the ordered
// table mapping row ranges to compressed payloads.
//
// A column is stored as two files:
//
//	<name>.array   concatenated compressed chunk payloads
//	<name>.chunks  a header followed by one fixed-size record per chunk
//
// Each record is 33 bytes, little-endian:
//
//	offset     int64  byte offset in the data file, or blob sequence number
//	nbytes     int64  compressed payload size
//	row_start  int64  first row held by the chunk
//	nrows      int64  number of rows in the chunk
//	external   uint8  1 if the payload is a blob in an external store
//
// Records are ordered by row_start with no gaps. A new or replacement
// payload is always written to fresh space (the end of the data file or a
// new blob) and made durable before its record is written, so a crash
// leaves either the previous or the new record, each pointing at complete
// payload.
package chunkdir
