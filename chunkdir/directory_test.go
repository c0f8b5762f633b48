package chunkdir

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/colstore/blobstore"
	"github.com/hupe1980/colstore/compression"
	"github.com/hupe1980/colstore/dtype"
	"github.com/hupe1980/colstore/internal/flock"
	"github.com/hupe1980/colstore/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHeader() Header {
	return Header{
		Type:        dtype.Int64Type,
		Compression: compression.DefaultConfig(),
		ChunkSize:   64,
	}
}

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	return Config{
		DataPath:   filepath.Join(dir, "col.array"),
		DirPath:    filepath.Join(dir, "col.chunks"),
		Header:     testHeader(),
		BlobPrefix: "col",
		Sync:       true,
	}
}

func openDir(t *testing.T, cfg Config) *Directory {
	t.Helper()
	d, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		Type:        dtype.FixedText(12),
		Compression: compression.Config{Algorithm: compression.Zlib, Level: -1, Shuffle: compression.ByteShuffle},
		ChunkSize:   1 << 20,
	}
	got, err := unmarshalHeader(h.marshal())
	require.NoError(t, err)
	assert.Equal(t, h, got)
	assert.Equal(t, int64(1<<20/12), got.RowsPerChunk())

	b := h.marshal()
	b[20] ^= 0xff
	_, err = unmarshalHeader(b)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = unmarshalHeader(b[:10])
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestRecordRoundTrip(t *testing.T) {
	d := Descriptor{Offset: 7, Nbytes: 99, RowStart: 1000, NRows: 8, IsExternal: true}
	rec := d.appendRecord(nil)
	require.Len(t, rec, RecordSize)

	got, err := decodeRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, d, got)

	rec[32] = 2
	_, err = decodeRecord(rec)
	assert.ErrorIs(t, err, ErrCorrupt)

	zero := Descriptor{Offset: 0, Nbytes: 1, RowStart: 0, NRows: 0}
	_, err = decodeRecord(zero.appendRecord(nil))
	assert.ErrorIs(t, err, ErrCorrupt)

	overflow := Descriptor{Offset: 0, Nbytes: 1, RowStart: math.MaxInt64 - 2, NRows: 8}
	_, err = decodeRecord(overflow.appendRecord(nil))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestAppendAndLocate(t *testing.T) {
	ctx := context.Background()
	d := openDir(t, testConfig(t))

	sizes := []int64{8, 8, 3}
	for i, n := range sizes {
		desc, err := d.Append(ctx, n, []byte{byte(i), byte(i), byte(i)}, false)
		require.NoError(t, err)
		assert.Equal(t, int64(i*3), desc.Offset)
	}
	assert.Equal(t, 3, d.Len())
	assert.Equal(t, int64(19), d.NRows())
	assert.Equal(t, int64(9), d.DataSize())

	i, desc, err := d.Locate(0)
	require.NoError(t, err)
	assert.Equal(t, 0, i)
	assert.True(t, desc.Contains(0))

	i, desc, err = d.Locate(8)
	require.NoError(t, err)
	assert.Equal(t, 1, i)
	assert.Equal(t, int64(8), desc.RowStart)

	i, _, err = d.Locate(18)
	require.NoError(t, err)
	assert.Equal(t, 2, i)

	_, _, err = d.Locate(19)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, _, err = d.Locate(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)

	idx, descs, err := d.LocateRange(7, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, idx)
	assert.Len(t, descs, 2)

	idx, _, err = d.LocateRange(0, 19)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, idx)

	idx, _, err = d.LocateRange(19, 0)
	require.NoError(t, err)
	assert.Empty(t, idx)

	_, _, err = d.LocateRange(10, 10)
	assert.ErrorIs(t, err, ErrOutOfRange)

	payload, err := d.ReadPayload(ctx, descs[1])
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 1, 1}, payload)

	_, err = d.Append(ctx, 0, []byte{1}, false)
	assert.Error(t, err)
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	d, err := Open(cfg)
	require.NoError(t, err)
	_, err = d.Append(ctx, 4, []byte("abcd"), false)
	require.NoError(t, err)
	_, err = d.Append(ctx, 2, []byte("ef"), false)
	require.NoError(t, err)
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	// The persisted header wins over the configured one.
	cfg.ReadOnly = true
	cfg.Header = Header{}
	ro := openDir(t, cfg)
	assert.Equal(t, testHeader(), ro.Header())
	assert.Equal(t, int64(6), ro.NRows())

	_, desc, err := ro.Locate(5)
	require.NoError(t, err)
	payload, err := ro.ReadPayload(ctx, desc)
	require.NoError(t, err)
	assert.Equal(t, []byte("ef"), payload)

	_, err = ro.Append(ctx, 1, []byte("x"), false)
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.ErrorIs(t, ro.Replace(0, desc), ErrReadOnly)
}

func TestTruncate(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	d, err := Open(cfg)
	require.NoError(t, err)
	_, err = d.Append(ctx, 4, []byte("abcd"), false)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	cfg.Truncate = true
	d = openDir(t, cfg)
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, int64(0), d.DataSize())
}

func TestOpenMissingReadOnly(t *testing.T) {
	cfg := testConfig(t)
	cfg.ReadOnly = true
	_, err := Open(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIOFault)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTornRecordIsDropped(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	d, err := Open(cfg)
	require.NoError(t, err)
	_, err = d.Append(ctx, 4, []byte("abcd"), false)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	f, err := os.OpenFile(cfg.DirPath, os.O_WRONLY|os.O_APPEND, 0)
	require.NoError(t, err)
	_, err = f.Write(make([]byte, 10))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	d = openDir(t, cfg)
	assert.Equal(t, 1, d.Len())
	desc, err := d.Append(ctx, 1, []byte("e"), false)
	require.NoError(t, err)
	assert.Equal(t, int64(4), desc.RowStart)

	info, err := os.Stat(cfg.DirPath)
	require.NoError(t, err)
	assert.Equal(t, int64(HeaderSize+2*RecordSize), info.Size())
}

func TestCorruptDirectory(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	d, err := Open(cfg)
	require.NoError(t, err)
	_, err = d.Append(ctx, 4, []byte("abcd"), false)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	// Cut the data file below the recorded payload.
	require.NoError(t, os.Truncate(cfg.DataPath, 2))
	_, err = Open(cfg)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestHugePayloadBoundsAreCorrupt(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	d, err := Open(cfg)
	require.NoError(t, err)
	_, err = d.Append(ctx, 4, []byte("abcd"), false)
	require.NoError(t, err)
	_, err = d.Append(ctx, 4, []byte("efgh"), false)
	require.NoError(t, err)

	// Offset+Nbytes wraps around to a negative value.
	huge := Descriptor{Offset: 1 << 62, Nbytes: 1 << 62, RowStart: 4, NRows: 4}
	assert.ErrorIs(t, d.Replace(1, huge), ErrCorrupt)
	require.NoError(t, d.Close())

	f, err := os.OpenFile(cfg.DirPath, os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteAt(huge.appendRecord(nil), HeaderSize+RecordSize)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	for _, readOnly := range []bool{true, false} {
		cfg.ReadOnly = readOnly
		_, err = Open(cfg)
		assert.ErrorIs(t, err, ErrCorrupt)
	}
}

func TestTruncateWaitsForLock(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Lock = true

	writer := openDir(t, cfg)
	_, err := writer.Append(ctx, 4, []byte("abcd"), false)
	require.NoError(t, err)

	second := cfg
	second.Truncate = true
	_, err = Open(second)
	assert.ErrorIs(t, err, flock.ErrLocked)

	info, err := os.Stat(cfg.DataPath)
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size())
	info, err = os.Stat(cfg.DirPath)
	require.NoError(t, err)
	assert.Equal(t, int64(HeaderSize+RecordSize), info.Size())

	// A torn tail is left alone while another writer holds the lock.
	f, err := os.OpenFile(cfg.DirPath, os.O_WRONLY|os.O_APPEND, 0)
	require.NoError(t, err)
	_, err = f.Write(make([]byte, 5))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Open(cfg)
	assert.ErrorIs(t, err, flock.ErrLocked)
	info, err = os.Stat(cfg.DirPath)
	require.NoError(t, err)
	assert.Equal(t, int64(HeaderSize+RecordSize+5), info.Size())

	require.NoError(t, writer.Close())
	reopened := openDir(t, second)
	assert.Equal(t, 0, reopened.Len())
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	d := openDir(t, testConfig(t))

	_, err := d.Append(ctx, 4, []byte("abcd"), false)
	require.NoError(t, err)
	_, err = d.Append(ctx, 4, []byte("efgh"), false)
	require.NoError(t, err)

	old, err := d.Descriptor(1)
	require.NoError(t, err)

	bad := old
	bad.NRows = 3
	assert.ErrorIs(t, d.Replace(1, bad), ErrRowsMismatch)
	assert.ErrorIs(t, d.Replace(5, old), ErrOutOfRange)

	prev, desc, err := d.Rewrite(ctx, 1, []byte("EFGH!"), false)
	require.NoError(t, err)
	assert.Equal(t, old, prev)
	assert.Equal(t, int64(8), desc.Offset)
	assert.Equal(t, old.RowStart, desc.RowStart)

	payload, err := d.ReadPayload(ctx, desc)
	require.NoError(t, err)
	assert.Equal(t, []byte("EFGH!"), payload)
}

func TestRewriteFailureKeepsOldChunk(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	faulty := fs.NewFaultyFS(nil)
	cfg.FS = faulty

	// The directory file accepts the header and two records only.
	faulty.AddRule(".chunks", fs.Fault{FailAfterBytes: HeaderSize + 2*RecordSize})

	d, err := Open(cfg)
	require.NoError(t, err)
	_, err = d.Append(ctx, 4, []byte("abcd"), false)
	require.NoError(t, err)
	_, err = d.Append(ctx, 4, []byte("efgh"), false)
	require.NoError(t, err)

	_, _, err = d.Rewrite(ctx, 0, []byte("ABCD"), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIOFault)
	assert.ErrorIs(t, err, fs.ErrInjected)

	desc, err := d.Descriptor(0)
	require.NoError(t, err)
	payload, err := d.ReadPayload(ctx, desc)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), payload)
	require.NoError(t, d.Close())

	faulty.ClearRules()
	cfg.FS = nil
	d = openDir(t, cfg)
	desc, err = d.Descriptor(0)
	require.NoError(t, err)
	payload, err = d.ReadPayload(ctx, desc)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), payload)
}

func TestSyncFailure(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	faulty := fs.NewFaultyFS(nil)
	cfg.FS = faulty

	d, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	faulty.AddRule(".array", fs.Fault{FailAfterBytes: -1, FailOnSync: true})
	d, err = Open(cfg)
	require.NoError(t, err)

	_, err = d.Append(ctx, 1, []byte("a"), false)
	assert.ErrorIs(t, err, ErrIOFault)
	assert.Equal(t, 0, d.Len())
	_ = d.Close()
}

func TestExternalChunks(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	store := blobstore.NewMemoryStore()
	cfg.Store = store

	d, err := Open(cfg)
	require.NoError(t, err)

	_, err = d.Append(ctx, 2, []byte("in"), false)
	require.NoError(t, err)
	ext, err := d.Append(ctx, 3, []byte("outside"), true)
	require.NoError(t, err)
	assert.True(t, ext.IsExternal)
	assert.Equal(t, int64(0), ext.Offset)
	assert.Equal(t, 1, store.Len())

	payload, err := d.ReadPayload(ctx, ext)
	require.NoError(t, err)
	assert.Equal(t, []byte("outside"), payload)

	_, next, err := d.Rewrite(ctx, 1, []byte("moved"), true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), next.Offset)
	assert.Equal(t, 1, store.Len())

	names, err := store.List(ctx, "col.")
	require.NoError(t, err)
	assert.Equal(t, []string{"col.0000000000000001.chunk"}, names)
	require.NoError(t, d.Close())

	// The blob sequence resumes after the highest referenced blob.
	d = openDir(t, cfg)
	desc, err := d.Append(ctx, 1, []byte("x"), true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), desc.Offset)

	cfg.Store = nil
	cfg.ReadOnly = true
	ro := openDir(t, cfg)
	_, err = ro.ReadPayload(ctx, next)
	assert.ErrorIs(t, err, ErrNoExternalStore)
}
