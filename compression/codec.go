package compression

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ErrCorruptChunk is returned when a compressed chunk is malformed or does
// not decompress to the expected number of bytes.
var ErrCorruptChunk = errors.New("corrupt chunk")

// Chunk header layout (little-endian):
//
//	Version   (1 byte)
//	Algorithm (1 byte)
//	Shuffle   (1 byte)
//	Flags     (1 byte)  bit 0: payload stored uncompressed
//	TypeSize  (4 bytes)
//	RawSize   (8 bytes)
//	Checksum  (4 bytes) CRC32-C of the raw bytes
//	Payload...
const (
	headerVersion = 1
	HeaderSize    = 20

	flagStored = 1 << 0
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// ZSTD encoder/decoder pools. Encoders are pooled per level.
var (
	zstdEncoderPools sync.Map // int -> *sync.Pool
	zstdDecoderPool  sync.Pool
)

func getZstdEncoder(level int) (*zstd.Encoder, *sync.Pool, error) {
	p, _ := zstdEncoderPools.LoadOrStore(level, &sync.Pool{})
	pool := p.(*sync.Pool)
	if v := pool.Get(); v != nil {
		return v.(*zstd.Encoder), pool, nil
	}
	lvl := zstd.SpeedDefault
	if level > 0 {
		lvl = zstd.EncoderLevelFromZstd(level)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(lvl), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, nil, err
	}
	return enc, pool, nil
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
}

var lz4Levels = [...]lz4.CompressionLevel{
	lz4.Fast, lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4,
	lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9,
}

// Compress compresses raw fixed-width elements of typesize bytes.
//
// The output starts with a self-describing header recording the algorithm,
// the shuffle filter, the element size and a checksum of the raw bytes, so a
// chunk can always be decoded regardless of the configuration in effect when
// it is read. If compression does not shrink the data, the raw bytes are
// stored behind the header.
func Compress(raw []byte, typesize int, cfg Config) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if typesize <= 0 {
		return nil, fmt.Errorf("compression: invalid type size %d", typesize)
	}

	shuffled := applyShuffle(cfg.Shuffle, raw, typesize)

	var (
		payload []byte
		err     error
	)
	switch cfg.Algorithm {
	case None:
		payload = nil
	case LZ4:
		payload, err = compressLZ4(shuffled, lz4.Fast)
	case LZ4HC:
		payload, err = compressLZ4(shuffled, lz4Levels[cfg.Level])
	case ZSTD:
		payload, err = compressZSTD(shuffled, cfg.Level)
	case Zlib:
		payload, err = compressZlib(shuffled, cfg.Level)
	case Snappy:
		payload = snappy.Encode(nil, shuffled)
	case S2:
		payload = compressS2(shuffled, cfg.Level)
	}
	if err != nil {
		return nil, fmt.Errorf("compression: %s: %w", cfg.Algorithm, err)
	}

	var flags byte
	if payload == nil || len(payload) >= len(shuffled) {
		payload = shuffled
		flags |= flagStored
	}

	out := make([]byte, HeaderSize, HeaderSize+len(payload))
	out[0] = headerVersion
	out[1] = byte(cfg.Algorithm)
	out[2] = byte(cfg.Shuffle)
	out[3] = flags
	binary.LittleEndian.PutUint32(out[4:], uint32(typesize))
	binary.LittleEndian.PutUint64(out[8:], uint64(len(raw)))
	binary.LittleEndian.PutUint32(out[16:], crc32.Checksum(raw, castagnoli))
	return append(out, payload...), nil
}

// Decompress reverses Compress. expected is the exact raw size the caller
// requires (rows * element width); any disagreement, malformed header,
// decoder failure or checksum mismatch returns ErrCorruptChunk.
func Decompress(src []byte, expected int) ([]byte, error) {
	h, err := ParseHeader(src)
	if err != nil {
		return nil, err
	}
	if h.RawSize != uint64(expected) {
		return nil, fmt.Errorf("%w: header size %d, expected %d", ErrCorruptChunk, h.RawSize, expected)
	}

	payload := src[HeaderSize:]
	var shuffled []byte
	if h.Stored {
		if len(payload) != expected {
			return nil, fmt.Errorf("%w: stored payload is %d bytes, expected %d", ErrCorruptChunk, len(payload), expected)
		}
		shuffled = payload
	} else {
		shuffled, err = decodePayload(h.Algorithm, payload, expected)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCorruptChunk, h.Algorithm, err)
		}
		if len(shuffled) != expected {
			return nil, fmt.Errorf("%w: decompressed size mismatch: got %d, expected %d", ErrCorruptChunk, len(shuffled), expected)
		}
	}

	raw := undoShuffle(h.Shuffle, shuffled, int(h.TypeSize))
	if h.Stored && (h.Shuffle == NoShuffle || len(raw) < int(h.TypeSize)) {
		// Never hand out a slice aliasing the caller's compressed buffer.
		raw = bytes.Clone(raw)
	}
	if crc32.Checksum(raw, castagnoli) != h.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptChunk)
	}
	return raw, nil
}

// Header is the decoded chunk header.
type Header struct {
	Algorithm Algorithm
	Shuffle   Shuffle
	Stored    bool
	TypeSize  uint32
	RawSize   uint64
	Checksum  uint32
}

// ParseHeader decodes and validates the header of a compressed chunk.
func ParseHeader(src []byte) (Header, error) {
	if len(src) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes is too small for a header", ErrCorruptChunk, len(src))
	}
	if src[0] != headerVersion {
		return Header{}, fmt.Errorf("%w: unsupported header version %d", ErrCorruptChunk, src[0])
	}
	h := Header{
		Algorithm: Algorithm(src[1]),
		Shuffle:   Shuffle(src[2]),
		Stored:    src[3]&flagStored != 0,
		TypeSize:  binary.LittleEndian.Uint32(src[4:]),
		RawSize:   binary.LittleEndian.Uint64(src[8:]),
		Checksum:  binary.LittleEndian.Uint32(src[16:]),
	}
	if _, ok := algorithmNames[h.Algorithm]; !ok {
		return Header{}, fmt.Errorf("%w: unknown algorithm %d", ErrCorruptChunk, src[1])
	}
	if h.Shuffle > BitShuffle || h.TypeSize == 0 {
		return Header{}, fmt.Errorf("%w: invalid shuffle %d / type size %d", ErrCorruptChunk, src[2], h.TypeSize)
	}
	return h, nil
}

func compressLZ4(data []byte, level lz4.CompressionLevel) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	var (
		n   int
		err error
	)
	if level == lz4.Fast {
		n, err = lz4.CompressBlock(data, dst, nil)
	} else {
		n, err = lz4.CompressBlockHC(data, dst, level, nil, nil)
	}
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // incompressible
	}
	return dst[:n], nil
}

func compressZSTD(data []byte, level int) ([]byte, error) {
	enc, pool, err := getZstdEncoder(level)
	if err != nil {
		return nil, err
	}
	defer pool.Put(enc)
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func compressZlib(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func compressS2(data []byte, level int) []byte {
	switch {
	case level >= 3:
		return s2.EncodeBest(nil, data)
	case level == 2:
		return s2.EncodeBetter(nil, data)
	default:
		return s2.Encode(nil, data)
	}
}

// decodeZSTD never produces more than expected bytes, whatever the frame
// claims.
func decodeZSTD(payload []byte, expected int) ([]byte, error) {
	var h zstd.Header
	if err := h.Decode(payload); err != nil {
		return nil, err
	}
	if h.HasFCS && h.FrameContentSize != uint64(expected) {
		return nil, fmt.Errorf("frame content size %d, expected %d", h.FrameContentSize, expected)
	}

	dec, err := getZstdDecoder()
	if err != nil {
		return nil, err
	}
	defer zstdDecoderPool.Put(dec)
	if err := dec.Reset(bytes.NewReader(payload)); err != nil {
		return nil, err
	}
	defer func() { _ = dec.Reset(nil) }()

	dst := make([]byte, expected)
	if _, err := io.ReadFull(dec, dst); err != nil {
		return nil, err
	}
	var extra [1]byte
	if n, _ := dec.Read(extra[:]); n != 0 {
		return nil, errors.New("trailing data after expected size")
	}
	return dst, nil
}

func decodePayload(a Algorithm, payload []byte, expected int) ([]byte, error) {
	switch a {
	case LZ4, LZ4HC:
		dst := make([]byte, expected)
		n, err := lz4.UncompressBlock(payload, dst)
		if err != nil {
			return nil, err
		}
		return dst[:n], nil
	case ZSTD:
		return decodeZSTD(payload, expected)
	case Zlib:
		r, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		dst := make([]byte, expected)
		if _, err := io.ReadFull(r, dst); err != nil {
			return nil, err
		}
		var extra [1]byte
		if n, _ := r.Read(extra[:]); n != 0 {
			return nil, errors.New("trailing data after expected size")
		}
		return dst, nil
	case Snappy:
		n, err := snappy.DecodedLen(payload)
		if err != nil {
			return nil, err
		}
		if n != expected {
			return nil, fmt.Errorf("decoded length %d, expected %d", n, expected)
		}
		return snappy.Decode(nil, payload)
	case S2:
		n, err := s2.DecodedLen(payload)
		if err != nil {
			return nil, err
		}
		if n != expected {
			return nil, fmt.Errorf("decoded length %d, expected %d", n, expected)
		}
		return s2.Decode(nil, payload)
	case None:
		return nil, errors.New("uncompressed chunk without stored flag")
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, a)
}
