package chunkdir

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/hupe1980/colstore/compression"
	"github.com/hupe1980/colstore/dtype"
)

// HeaderSize is the fixed size reserved for the header at the start of the
// directory file. Records follow it.
const HeaderSize = 64

const (
	headerMagic   = 0x4b484343 // "CCHK"
	headerVersion = 1
)

// Header describes how every chunk of the column is encoded.
type Header struct {
	Type        dtype.ElementType
	Compression compression.Config
	// ChunkSize is the target uncompressed size of a chunk in bytes.
	ChunkSize int64
}

// RowsPerChunk returns how many rows fill one chunk, at least 1.
func (h Header) RowsPerChunk() int64 {
	if h.Type.Width <= 0 {
		return 1
	}
	return max(1, h.ChunkSize/int64(h.Type.Width))
}

// Validate checks the header fields.
func (h Header) Validate() error {
	if err := h.Type.Validate(); err != nil {
		return err
	}
	if err := h.Compression.Validate(); err != nil {
		return err
	}
	if h.ChunkSize <= 0 {
		return fmt.Errorf("chunkdir: chunk size must be positive, got %d", h.ChunkSize)
	}
	return nil
}

// Format:
//
//	Magic         (4 bytes)
//	Version       (4 bytes)
//	Checksum      (4 bytes) CRC32 of payload
//	PayloadLength (4 bytes)
//	Payload:
//	  Kind        (1 byte)
//	  Width       (4 bytes)
//	  Algorithm   (1 byte)
//	  Level       (4 bytes, signed)
//	  Shuffle     (1 byte)
//	  ChunkSize   (8 bytes)
//	zero padding to HeaderSize
func (h Header) marshal() []byte {
	payload := make([]byte, 0, 19)
	payload = append(payload, byte(h.Type.Kind))
	payload = binary.LittleEndian.AppendUint32(payload, uint32(h.Type.Width))
	payload = append(payload, byte(h.Compression.Algorithm))
	payload = binary.LittleEndian.AppendUint32(payload, uint32(int32(h.Compression.Level)))
	payload = append(payload, byte(h.Compression.Shuffle))
	payload = binary.LittleEndian.AppendUint64(payload, uint64(h.ChunkSize))

	out := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(out[0:], headerMagic)
	binary.LittleEndian.PutUint32(out[4:], headerVersion)
	binary.LittleEndian.PutUint32(out[8:], crc32.ChecksumIEEE(payload))
	binary.LittleEndian.PutUint32(out[12:], uint32(len(payload)))
	copy(out[16:], payload)
	return out
}

func unmarshalHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header: %w", ErrCorrupt, io.ErrUnexpectedEOF)
	}
	if magic := binary.LittleEndian.Uint32(b[0:]); magic != headerMagic {
		return Header{}, fmt.Errorf("%w: invalid magic %x", ErrCorrupt, magic)
	}
	if v := binary.LittleEndian.Uint32(b[4:]); v != headerVersion {
		return Header{}, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}
	sum := binary.LittleEndian.Uint32(b[8:])
	n := binary.LittleEndian.Uint32(b[12:])
	if n < 19 || 16+int(n) > HeaderSize {
		return Header{}, fmt.Errorf("%w: header payload length %d", ErrCorrupt, n)
	}
	p := b[16 : 16+n]
	if crc32.ChecksumIEEE(p) != sum {
		return Header{}, fmt.Errorf("%w: header checksum mismatch", ErrCorrupt)
	}

	h := Header{
		Type: dtype.ElementType{
			Kind:  dtype.Kind(p[0]),
			Width: int(binary.LittleEndian.Uint32(p[1:])),
		},
		Compression: compression.Config{
			Algorithm: compression.Algorithm(p[5]),
			Level:     int(int32(binary.LittleEndian.Uint32(p[6:]))),
			Shuffle:   compression.Shuffle(p[10]),
		},
		ChunkSize: int64(binary.LittleEndian.Uint64(p[11:])),
	}
	if err := h.Validate(); err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return h, nil
}
