package chunkdir

import (
	"encoding/binary"
	"fmt"
	"math"
)

// RecordSize is the on-disk size of one directory record.
const RecordSize = 33

// Descriptor locates the payload of one chunk.
type Descriptor struct {
	Offset     int64
	Nbytes     int64
	RowStart   int64
	NRows      int64
	IsExternal bool
}

// RowEnd returns the first row after the chunk.
func (d Descriptor) RowEnd() int64 { return d.RowStart + d.NRows }

// Contains reports whether row falls in the chunk.
func (d Descriptor) Contains(row int64) bool {
	return row >= d.RowStart && row < d.RowEnd()
}

func (d Descriptor) String() string {
	loc := "inline"
	if d.IsExternal {
		loc = "external"
	}
	return fmt.Sprintf("rows [%d, %d) %s @%d+%d", d.RowStart, d.RowEnd(), loc, d.Offset, d.Nbytes)
}

func (d Descriptor) appendRecord(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, uint64(d.Offset))
	dst = binary.LittleEndian.AppendUint64(dst, uint64(d.Nbytes))
	dst = binary.LittleEndian.AppendUint64(dst, uint64(d.RowStart))
	dst = binary.LittleEndian.AppendUint64(dst, uint64(d.NRows))
	if d.IsExternal {
		return append(dst, 1)
	}
	return append(dst, 0)
}

func decodeRecord(b []byte) (Descriptor, error) {
	if len(b) < RecordSize {
		return Descriptor{}, fmt.Errorf("%w: short record", ErrCorrupt)
	}
	d := Descriptor{
		Offset:   int64(binary.LittleEndian.Uint64(b[0:])),
		Nbytes:   int64(binary.LittleEndian.Uint64(b[8:])),
		RowStart: int64(binary.LittleEndian.Uint64(b[16:])),
		NRows:    int64(binary.LittleEndian.Uint64(b[24:])),
	}
	switch b[32] {
	case 0:
	case 1:
		d.IsExternal = true
	default:
		return Descriptor{}, fmt.Errorf("%w: external flag %d", ErrCorrupt, b[32])
	}
	if d.Offset < 0 || d.Nbytes < 0 || d.RowStart < 0 || d.NRows <= 0 || d.RowStart > math.MaxInt64-d.NRows {
		return Descriptor{}, fmt.Errorf("%w: invalid record %s", ErrCorrupt, d)
	}
	return d, nil
}
