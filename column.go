package colstore

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hupe1980/colstore/chunkdir"
	"github.com/hupe1980/colstore/compression"
	"github.com/hupe1980/colstore/dtype"
	"github.com/hupe1980/colstore/indexset"
	"github.com/hupe1980/colstore/internal/cache"
	"github.com/hupe1980/colstore/internal/conv"
	"github.com/hupe1980/colstore/internal/fs"
	"github.com/hupe1980/colstore/meta"
)

// Column is one chunked, compressed column on disk.
//
// A Column is safe for concurrent use. Reads run in parallel; mutations are
// serialized. Only one Column per process or machine may have a column open
// for writing; WithWriterLock enforces this with an advisory lock.
type Column struct {
	paths   Paths
	mode    Mode
	typ     dtype.ElementType
	opts    options
	dir     *chunkdir.Directory
	cache   cache.ChunkCache
	logger  *Logger
	metrics MetricsCollector

	mu     sync.RWMutex
	closed bool
}

// Open opens the column at path, which may be the column base name or any of
// its artifacts (e.g. "data/price" or "data/price.array").
//
// typ must match the element type of an existing column; the zero
// ElementType accepts whatever type the column was created with.
func Open(ctx context.Context, path string, typ dtype.ElementType, mode Mode, opts ...Option) (*Column, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	paths := PathsFor(path)
	logger := o.resolveLogger().WithColumn(paths.Name())

	c, err := openColumn(paths, typ, mode, o, logger)
	if err != nil {
		logger.LogOpen(ctx, paths.Data, mode, 0, err)
		return nil, err
	}
	logger.LogOpen(ctx, paths.Data, mode, c.dir.NRows(), nil)
	return c, nil
}

func openColumn(paths Paths, typ dtype.ElementType, mode Mode, o options, logger *Logger) (*Column, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	inferType := typ.Kind == dtype.Invalid && typ.Width == 0
	if !inferType {
		if err := typ.Validate(); err != nil {
			return nil, err
		}
	}

	if mode.Writable() {
		exists, err := fs.Exists(o.fs, paths.Chunks)
		if err != nil {
			return nil, &IOError{Op: "stat", Path: paths.Chunks, Err: err}
		}
		if inferType && (mode == ModeCreate || !exists) {
			return nil, fmt.Errorf("%w: an element type is required to create %s", dtype.ErrInvalidType, paths.Name())
		}
		if err := o.fs.MkdirAll(filepath.Dir(paths.Base), 0o755); err != nil {
			return nil, &IOError{Op: "mkdir", Path: filepath.Dir(paths.Base), Err: err}
		}
	}

	dir, err := chunkdir.Open(chunkdir.Config{
		DataPath:   paths.Data,
		DirPath:    paths.Chunks,
		FS:         o.fs,
		ReadOnly:   !mode.Writable(),
		Truncate:   mode == ModeCreate,
		Lock:       o.writerLock,
		Header:     chunkdir.Header{Type: typ, Compression: o.compression, ChunkSize: o.chunkSize},
		Store:      o.store,
		BlobPrefix: paths.Name(),
		Sync:       o.syncWrites,
	})
	if err != nil {
		return nil, translateError(err)
	}
	if !inferType && dir.Header().Type != typ {
		_ = dir.Close()
		return nil, fmt.Errorf("%w: %s holds %s, not %s", ErrTypeMismatch, paths.Name(), dir.Header().Type, typ)
	}

	c := &Column{
		paths:   paths,
		mode:    mode,
		typ:     dir.Header().Type,
		opts:    o,
		dir:     dir,
		cache:   cache.Nop{},
		logger:  logger,
		metrics: o.metrics,
	}
	if o.cacheSize > 0 {
		c.cache = cache.NewLRU(o.cacheSize, o.resources)
	}
	return c, nil
}

// Name returns the column name.
func (c *Column) Name() string { return c.paths.Name() }

// Paths returns the artifact names of the column.
func (c *Column) Paths() Paths { return c.paths }

// Type returns the element type.
func (c *Column) Type() dtype.ElementType { return c.typ }

// Mode returns the open mode.
func (c *Column) Mode() Mode { return c.mode }

// NRows returns the number of rows.
func (c *Column) NRows() int64 { return c.dir.NRows() }

// NChunks returns the number of chunks.
func (c *Column) NChunks() int { return c.dir.Len() }

// Chunks returns the chunk descriptors in row order.
func (c *Column) Chunks() []chunkdir.Descriptor { return c.dir.Descriptors() }

// Compression returns the codec configuration recorded for the column.
func (c *Column) Compression() compression.Config { return c.dir.Header().Compression }

// ChunkSize returns the target uncompressed chunk size in bytes.
func (c *Column) ChunkSize() int64 { return c.dir.Header().ChunkSize }

// CacheStats reports the decompressed-chunk cache.
func (c *Column) CacheStats() cache.Stats { return c.cache.Stats() }

// Meta opens the JSON sidecar of the column with the column's access mode.
func (c *Column) Meta() (*meta.Meta, error) {
	mode := meta.ReadOnly
	if c.mode.Writable() {
		mode = meta.ReadWrite
	}
	return meta.Open(c.paths.Meta, mode, meta.WithFileSystem(c.opts.fs))
}

// Append adds rows after the last row, grouped into new chunks of the
// configured chunk size.
func (c *Column) Append(ctx context.Context, rows dtype.Array) (err error) {
	start := time.Now()
	n := int64(rows.Len())
	var chunks int
	defer func() {
		c.metrics.RecordAppend(n, chunks, time.Since(start), err)
		c.logger.LogAppend(ctx, n, chunks, err)
	}()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkWritable(); err != nil {
		return err
	}
	if err := c.checkType(rows); err != nil {
		return err
	}

	h := c.dir.Header()
	per := h.RowsPerChunk()
	w := int64(c.typ.Width)
	data := rows.Bytes()
	for off := int64(0); off < n; off += per {
		if err := ctx.Err(); err != nil {
			return err
		}
		cnt := min(per, n-off)
		comp, err := compression.Compress(data[off*w:(off+cnt)*w], c.typ.Width, h.Compression)
		if err != nil {
			return err
		}
		if _, err := c.dir.Append(ctx, cnt, comp, c.externalFor(cnt, len(comp))); err != nil {
			return translateError(err)
		}
		chunks++
	}
	return nil
}

// ReadSlice returns the rows selected by s.
func (c *Column) ReadSlice(ctx context.Context, s Slice) (dtype.Array, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.checkOpen(); err != nil {
		return dtype.Array{}, err
	}
	_, _, n := s.Indices(c.dir.NRows())
	dst := dtype.New(c.typ, int(n))
	if err := c.observeRead(ctx, n, func() (int, error) { return c.readSlice(ctx, dst, s) }); err != nil {
		return dtype.Array{}, err
	}
	return dst, nil
}

// ReadSliceInto reads the rows selected by s into dst, whose length must
// equal the slice length.
func (c *Column) ReadSliceInto(ctx context.Context, dst dtype.Array, s Slice) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.observeRead(ctx, int64(dst.Len()), func() (int, error) { return c.readSlice(ctx, dst, s) })
}

// ReadRows returns the rows idx addresses, in the order of idx. Negative
// entries count from the end.
func (c *Column) ReadRows(ctx context.Context, idx *indexset.Set) (dtype.Array, error) {
	if idx == nil {
		return dtype.Array{}, nilIndexSet()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.checkOpen(); err != nil {
		return dtype.Array{}, err
	}
	dst := dtype.New(c.typ, idx.Len())
	if err := c.observeRead(ctx, int64(idx.Len()), func() (int, error) { return c.readRows(ctx, dst, idx) }); err != nil {
		return dtype.Array{}, err
	}
	return dst, nil
}

// ReadRowsInto reads the rows idx addresses into dst, whose length must equal
// idx.Len().
func (c *Column) ReadRowsInto(ctx context.Context, dst dtype.Array, idx *indexset.Set) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.observeRead(ctx, int64(dst.Len()), func() (int, error) { return c.readRows(ctx, dst, idx) })
}

// ReadRow returns row i as a scalar.
func (c *Column) ReadRow(ctx context.Context, i int64) (dtype.Array, error) {
	dst := dtype.New(c.typ, 1)
	if err := c.ReadRowInto(ctx, dst, i); err != nil {
		return dtype.Array{}, err
	}
	return dst.At(0), nil
}

// ReadRowInto reads row i into dst, which must be a one-row container. A
// scalar dst is rejected with ErrValueSemantics.
func (c *Column) ReadRowInto(ctx context.Context, dst dtype.Array, i int64) error {
	if dst.IsScalar() {
		return ErrValueSemantics
	}
	if dst.Len() != 1 {
		return readSizeMismatch(1, dst.Len())
	}
	return c.ReadRowsInto(ctx, dst, indexset.New([]int64{i}))
}

// WriteAt overwrites len(rows) existing rows starting at row start.
//
// Every touched chunk is recompressed into fresh space and the space of the
// old payload is not reused; Reclaimable reports how much of the data file
// is no longer referenced.
func (c *Column) WriteAt(ctx context.Context, rows dtype.Array, start int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.observeWrite(ctx, int64(rows.Len()), func() (int, error) {
		if err := c.checkWritable(); err != nil {
			return 0, err
		}
		if err := c.checkType(rows); err != nil {
			return 0, err
		}
		nrows := c.dir.NRows()
		n := int64(rows.Len())
		if start < 0 {
			start += nrows
		}
		if start < 0 || start+n > nrows {
			return 0, fmt.Errorf("%w: rows [%d, %d), nrows %d", ErrOutOfRange, start, start+n, nrows)
		}
		return c.writeStrided(ctx, rows, start, 1, n)
	})
}

// UpdateRow overwrites row i with the single row in row.
func (c *Column) UpdateRow(ctx context.Context, i int64, row dtype.Array) error {
	if row.Len() != 1 {
		return writeSizeMismatch(1, row.Len())
	}
	return c.WriteAt(ctx, row, i)
}

// WriteSlice assigns rows to the rows selected by s. The slice length must
// equal rows.Len().
func (c *Column) WriteSlice(ctx context.Context, rows dtype.Array, s Slice) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.observeWrite(ctx, int64(rows.Len()), func() (int, error) {
		if err := c.checkWritable(); err != nil {
			return 0, err
		}
		if err := c.checkType(rows); err != nil {
			return 0, err
		}
		start, step, n := s.Indices(c.dir.NRows())
		if n != int64(rows.Len()) {
			return 0, writeSizeMismatch(int(n), rows.Len())
		}
		return c.writeStrided(ctx, rows, start, step, n)
	})
}

// WriteRows assigns rows[i] to row idx[i]. When idx repeats a row, the last
// assignment in idx order wins. Like WriteAt, it leaves the replaced
// payloads behind as reclaimable space.
func (c *Column) WriteRows(ctx context.Context, rows dtype.Array, idx *indexset.Set) error {
	if idx == nil {
		return nilIndexSet()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.observeWrite(ctx, int64(rows.Len()), func() (int, error) {
		if err := c.checkWritable(); err != nil {
			return 0, err
		}
		if err := c.checkType(rows); err != nil {
			return 0, err
		}
		if rows.Len() != idx.Len() {
			return 0, writeSizeMismatch(idx.Len(), rows.Len())
		}
		refs, err := c.resolve(idx)
		if err != nil {
			return 0, err
		}
		w := int64(c.typ.Width)
		src := rows.Bytes()
		chunks := 0
		err = c.eachRowChunk(refs, func(i int, d chunkdir.Descriptor, group []rowRef) error {
			chunks++
			return c.modifyChunk(ctx, i, d, func(raw []byte) {
				for _, r := range group {
					off := (r.row - d.RowStart) * w
					copy(raw[off:off+w], src[int64(r.pos)*w:int64(r.pos+1)*w])
				}
			})
		})
		return chunks, err
	})
}

// Sync flushes the data and directory files.
func (c *Column) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.dir.Sync()
}

// Close releases the writer lock, flushes and closes the column files and
// drops cached chunks. It is idempotent.
func (c *Column) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	err := c.dir.Close()
	c.cache.Purge()

	c.logger.LogClose(context.Background(), err)
	return err
}

// Verify decompresses every chunk and checks the directory invariants.
func (c *Column) Verify(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	var next int64
	for i, d := range c.dir.Descriptors() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.RowStart != next {
			return fmt.Errorf("%w: chunk %d starts at row %d, expected %d", ErrCorruptDirectory, i, d.RowStart, next)
		}
		next = d.RowEnd()
		payload, err := c.dir.ReadPayload(ctx, d)
		if err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
		expected, err := conv.ByteSize(d.NRows, c.typ.Width)
		if err != nil {
			return fmt.Errorf("%w: chunk %d: %w", ErrCorruptChunk, i, err)
		}
		if _, err := compression.Decompress(payload, expected); err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
	}
	return nil
}

// Reclaimable returns the bytes of the data file no longer referenced by
// any chunk, left behind by in-place writes.
func (c *Column) Reclaimable() int64 {
	var live int64
	for _, d := range c.dir.Descriptors() {
		if !d.IsExternal {
			live += d.Nbytes
		}
	}
	return c.dir.DataSize() - live
}

func (c *Column) String() string {
	var sb strings.Builder
	descs := c.dir.Descriptors()
	var external int64
	for _, d := range descs {
		if d.IsExternal {
			external += d.Nbytes
		}
	}
	dirSize := int64(chunkdir.HeaderSize + len(descs)*chunkdir.RecordSize)
	ondisk := c.dir.DataSize() + dirSize

	fmt.Fprintf(&sb, "Column:\n")
	fmt.Fprintf(&sb, "  name: %s\n", c.Name())
	fmt.Fprintf(&sb, "  filename: %s\n", c.paths.Data)
	fmt.Fprintf(&sb, "  mode: %s\n", c.mode)
	fmt.Fprintf(&sb, "  dtype: %s\n", c.typ)
	fmt.Fprintf(&sb, "  nrows: %s\n", humanize.Comma(c.NRows()))
	fmt.Fprintf(&sb, "  chunks: %d\n", len(descs))
	fmt.Fprintf(&sb, "  compression: %s\n", c.Compression())
	fmt.Fprintf(&sb, "  chunksize: %s\n", humanize.IBytes(uint64(c.ChunkSize())))
	fmt.Fprintf(&sb, "  ondisk: %s\n", humanize.IBytes(uint64(ondisk)))
	fmt.Fprintf(&sb, "  reclaimable: %s", humanize.IBytes(uint64(c.Reclaimable())))
	if external > 0 {
		fmt.Fprintf(&sb, "\n  external: %s", humanize.IBytes(uint64(external)))
	}
	return sb.String()
}

func (c *Column) checkOpen() error {
	if c.closed {
		return ErrClosed
	}
	return nil
}

func (c *Column) checkWritable() error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if !c.mode.Writable() {
		return fmt.Errorf("%w: column %s is open read-only", ErrPermission, c.Name())
	}
	return nil
}

func (c *Column) checkType(a dtype.Array) error {
	if a.Type() != c.typ {
		return fmt.Errorf("%w: column %s holds %s, got %s", ErrTypeMismatch, c.Name(), c.typ, a.Type())
	}
	return nil
}

func nilIndexSet() error {
	return fmt.Errorf("%w: %w", ErrTypeMismatch, indexset.ErrTypeMismatch)
}

func (c *Column) externalFor(nrows int64, nbytes int) bool {
	return c.opts.store != nil && c.opts.external != nil && c.opts.external(nrows, nbytes)
}

func (c *Column) observeRead(ctx context.Context, rows int64, fn func() (int, error)) error {
	start := time.Now()
	chunks, err := fn()
	c.metrics.RecordRead(rows, chunks, time.Since(start), err)
	if err != nil {
		c.logger.DebugContext(ctx, "read failed", "error", err)
	}
	return err
}

func (c *Column) observeWrite(ctx context.Context, rows int64, fn func() (int, error)) error {
	start := time.Now()
	chunks, err := fn()
	c.metrics.RecordWrite(rows, chunks, time.Since(start), err)
	c.logger.LogWrite(ctx, rows, chunks, err)
	return err
}

func cacheKey(d chunkdir.Descriptor) cache.Key {
	return cache.Key{Offset: d.Offset, Nbytes: d.Nbytes, External: d.IsExternal}
}

// readChunk returns the decompressed rows of d. The result may be shared
// with the cache and must not be modified.
func (c *Column) readChunk(ctx context.Context, d chunkdir.Descriptor) ([]byte, error) {
	key := cacheKey(d)
	if raw, ok := c.cache.Get(key); ok {
		return raw, nil
	}
	payload, err := c.dir.ReadPayload(ctx, d)
	if err != nil {
		return nil, translateError(err)
	}
	expected, err := conv.ByteSize(d.NRows, c.typ.Width)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptChunk, err)
	}
	raw, err := compression.Decompress(payload, expected)
	if err != nil {
		return nil, fmt.Errorf("rows [%d, %d): %w", d.RowStart, d.RowEnd(), err)
	}
	c.cache.Set(key, raw)
	return raw, nil
}

// modifyChunk applies fn to a private copy of chunk i and commits the
// recompressed result. The payload is durable before the directory record
// points at it.
func (c *Column) modifyChunk(ctx context.Context, i int, d chunkdir.Descriptor, fn func(raw []byte)) error {
	raw, err := c.readChunk(ctx, d)
	if err != nil {
		return err
	}
	buf := bytes.Clone(raw)
	fn(buf)

	comp, err := compression.Compress(buf, c.typ.Width, c.dir.Header().Compression)
	if err != nil {
		return err
	}
	old, desc, err := c.dir.Rewrite(ctx, i, comp, c.externalFor(d.NRows, len(comp)))
	if err != nil {
		return translateError(err)
	}
	c.cache.Remove(cacheKey(old))
	c.cache.Set(cacheKey(desc), buf)
	return nil
}

// eachSliceChunk calls fn for every chunk holding at least one of the n rows
// start, start+step, ... with the half-open range [k0, k1) of slice
// positions that fall in the chunk.
func (c *Column) eachSliceChunk(start, step, n int64, fn func(i int, d chunkdir.Descriptor, k0, k1 int64) error) error {
	if n == 0 {
		return nil
	}
	last := start + (n-1)*step
	lo, hi := min(start, last), max(start, last)
	idx, descs, err := c.dir.LocateRange(lo, hi-lo+1)
	if err != nil {
		return translateError(err)
	}
	for j, d := range descs {
		k0, k1 := slicePositions(start, step, n, d.RowStart, d.RowEnd())
		if k0 >= k1 {
			continue
		}
		if err := fn(idx[j], d, k0, k1); err != nil {
			return err
		}
	}
	return nil
}

// slicePositions returns the positions k in [0, n) with start+k*step in
// [rowStart, rowEnd).
func slicePositions(start, step, n, rowStart, rowEnd int64) (int64, int64) {
	var k0, k1 int64
	if step > 0 {
		k0 = ceilDiv(rowStart-start, step)
		k1 = ceilDiv(rowEnd-start, step)
	} else {
		k0 = ceilDiv(start-rowEnd+1, -step)
		k1 = ceilDiv(start-rowStart+1, -step)
	}
	return min(max(k0, 0), n), min(max(k1, 0), n)
}

// ceilDiv rounds a/b up for b > 0.
func ceilDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && a > 0 {
		q++
	}
	return q
}

func (c *Column) readSlice(ctx context.Context, dst dtype.Array, s Slice) (int, error) {
	if dst.IsScalar() {
		return 0, ErrValueSemantics
	}
	if err := c.checkType(dst); err != nil {
		return 0, err
	}
	start, step, n := s.Indices(c.dir.NRows())
	if int64(dst.Len()) != n {
		return 0, readSizeMismatch(int(n), dst.Len())
	}
	w := int64(c.typ.Width)
	out := dst.Bytes()
	chunks := 0
	err := c.eachSliceChunk(start, step, n, func(_ int, d chunkdir.Descriptor, k0, k1 int64) error {
		raw, err := c.readChunk(ctx, d)
		if err != nil {
			return err
		}
		chunks++
		if step == 1 {
			from := start + k0 - d.RowStart
			copy(out[k0*w:k1*w], raw[from*w:(from+k1-k0)*w])
			return nil
		}
		for k := k0; k < k1; k++ {
			row := start + k*step - d.RowStart
			copy(out[k*w:(k+1)*w], raw[row*w:(row+1)*w])
		}
		return nil
	})
	return chunks, err
}

func (c *Column) writeStrided(ctx context.Context, rows dtype.Array, start, step, n int64) (int, error) {
	w := int64(c.typ.Width)
	src := rows.Bytes()
	chunks := 0
	err := c.eachSliceChunk(start, step, n, func(i int, d chunkdir.Descriptor, k0, k1 int64) error {
		chunks++
		return c.modifyChunk(ctx, i, d, func(raw []byte) {
			for k := k0; k < k1; k++ {
				row := start + k*step - d.RowStart
				copy(raw[row*w:(row+1)*w], src[k*w:(k+1)*w])
			}
		})
	})
	return chunks, err
}

// rowRef pairs a normalized row with its position in the caller's index set.
type rowRef struct {
	row int64
	pos int
}

// resolve normalizes idx against the current row count and orders the
// result by row, keeping caller order among equal rows. Checked sets skip
// normalization.
func (c *Column) resolve(idx *indexset.Set) ([]rowRef, error) {
	nrows := c.dir.NRows()
	refs := make([]rowRef, idx.Len())
	sorted := idx.IsSorted()
	for i := range refs {
		v := idx.At(i)
		if !idx.IsChecked() {
			if v < 0 {
				v += nrows
				sorted = false
			}
			if v < 0 || v >= nrows {
				return nil, fmt.Errorf("%w: row %d, nrows %d", ErrOutOfRange, idx.At(i), nrows)
			}
		}
		refs[i] = rowRef{row: v, pos: i}
	}
	if !sorted {
		slices.SortStableFunc(refs, func(a, b rowRef) int { return cmp.Compare(a.row, b.row) })
	}
	return refs, nil
}

// eachRowChunk calls fn once per chunk with the refs that fall in it. refs
// must be ordered by row.
func (c *Column) eachRowChunk(refs []rowRef, fn func(i int, d chunkdir.Descriptor, group []rowRef) error) error {
	for j := 0; j < len(refs); {
		i, d, err := c.dir.Locate(refs[j].row)
		if err != nil {
			return translateError(err)
		}
		k := j + 1
		for k < len(refs) && refs[k].row < d.RowEnd() {
			k++
		}
		if err := fn(i, d, refs[j:k]); err != nil {
			return err
		}
		j = k
	}
	return nil
}

func (c *Column) readRows(ctx context.Context, dst dtype.Array, idx *indexset.Set) (int, error) {
	if idx == nil {
		return 0, nilIndexSet()
	}
	if dst.IsScalar() {
		return 0, ErrValueSemantics
	}
	if err := c.checkType(dst); err != nil {
		return 0, err
	}
	if dst.Len() != idx.Len() {
		return 0, readSizeMismatch(idx.Len(), dst.Len())
	}
	refs, err := c.resolve(idx)
	if err != nil {
		return 0, err
	}
	w := int64(c.typ.Width)
	out := dst.Bytes()
	chunks := 0
	err = c.eachRowChunk(refs, func(_ int, d chunkdir.Descriptor, group []rowRef) error {
		raw, err := c.readChunk(ctx, d)
		if err != nil {
			return err
		}
		chunks++
		for _, r := range group {
			off := (r.row - d.RowStart) * w
			copy(out[int64(r.pos)*w:int64(r.pos+1)*w], raw[off:off+w])
		}
		return nil
	})
	return chunks, err
}
