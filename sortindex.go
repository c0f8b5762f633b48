package colstore

import (
	"bytes"
	"cmp"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/colstore/chunkdir"
	"github.com/hupe1980/colstore/dtype"
	"github.com/hupe1980/colstore/internal/fs"
	"github.com/hupe1980/colstore/mergesort"
	"github.com/hupe1980/colstore/resource"
)

// sortRecord is one entry of a sort run: the order-preserving key of a row
// and the row number.
type sortRecord struct {
	key []byte
	row int64
}

func compareRecords(a, b sortRecord) int {
	if c := bytes.Compare(a.key, b.key); c != 0 {
		return c
	}
	return cmp.Compare(a.row, b.row)
}

func recordCodec(keyWidth int) mergesort.RecordCodec[sortRecord] {
	return mergesort.RecordCodec[sortRecord]{
		Size: keyWidth + 8,
		Encode: func(dst []byte, r sortRecord) {
			copy(dst, r.key)
			binary.LittleEndian.PutUint64(dst[keyWidth:], uint64(r.row))
		},
		Decode: func(src []byte) sortRecord {
			return sortRecord{
				key: bytes.Clone(src[:keyWidth]),
				row: int64(binary.LittleEndian.Uint64(src[keyWidth:])),
			}
		},
	}
}

// sortIndexPath is the column holding the sort index.
func (c *Column) sortIndexPath() string {
	return c.paths.Sorted + "." + ExtData
}

// BuildSortIndex writes the permutation that orders the column ascending as
// an int64 column next to it. Equal values keep row order.
//
// Every chunk is sorted into a run file on its own; the runs are then merged
// so memory use does not grow with the column. Run generation uses the sort
// workers of the resource controller and run I/O is charged to its I/O
// limit.
func (c *Column) BuildSortIndex(ctx context.Context) (err error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	runs := 0
	defer func() { c.logger.LogSortIndex(ctx, runs, err) }()

	if err := c.checkWritable(); err != nil {
		return err
	}

	rc := c.opts.resources
	descs := c.dir.Descriptors()
	files := make([]fs.File, len(descs))
	defer func() {
		for _, f := range files {
			if f != nil {
				_ = f.Close()
				_ = c.opts.fs.Remove(f.Name())
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rc.SortWorkers())
	for i, d := range descs {
		g.Go(func() error {
			f, err := c.writeRun(gctx, d)
			files[i] = f
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	runs = len(files)

	codec := recordCodec(dtype.KeyWidth(c.typ))
	sources := make([]mergesort.Run[sortRecord], len(files))
	for i, f := range files {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return &IOError{Op: "seek", Path: f.Name(), Err: err}
		}
		sources[i] = mergesort.NewReaderRun(resource.NewRateLimitedReader(ctx, f, rc), codec)
	}

	out, err := Open(ctx, c.sortIndexPath(), dtype.Int64Type, ModeCreate,
		WithFileSystem(c.opts.fs),
		WithCompression(c.Compression()),
		WithChunkSize(c.ChunkSize()),
		WithSyncWrites(c.opts.syncWrites),
		WithCacheSize(0),
		WithLogger(c.logger),
	)
	if err != nil {
		return err
	}

	batch := make([]int64, 0, out.dir.Header().RowsPerChunk())
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := out.Append(ctx, dtype.FromSlice(batch))
		batch = batch[:0]
		return err
	}
	for rec, err := range mergesort.Merge(sources, compareRecords) {
		if err != nil {
			return errors.Join(fmt.Errorf("merge sort runs: %w", err), out.Close())
		}
		batch = append(batch, rec.row)
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return errors.Join(err, out.Close())
			}
		}
	}
	if err := flush(); err != nil {
		return errors.Join(err, out.Close())
	}
	return out.Close()
}

// writeRun sorts the rows of chunk d and writes them to a temporary run
// file.
func (c *Column) writeRun(ctx context.Context, d chunkdir.Descriptor) (fs.File, error) {
	raw, err := c.readChunk(ctx, d)
	if err != nil {
		return nil, err
	}
	w := c.typ.Width
	kw := dtype.KeyWidth(c.typ)
	n := len(raw) / w
	keys := make([]byte, n*kw)
	recs := make([]sortRecord, n)
	for r := range recs {
		k := dtype.AppendKey(c.typ, keys[r*kw:r*kw:(r+1)*kw], raw[r*w:(r+1)*w])
		recs[r] = sortRecord{key: k, row: d.RowStart + int64(r)}
	}
	slices.SortFunc(recs, compareRecords)

	f, err := c.opts.fs.CreateTemp(filepath.Dir(c.paths.Base), "."+c.Name()+".run-*")
	if err != nil {
		return nil, &IOError{Op: "create", Path: filepath.Dir(c.paths.Base), Err: err}
	}
	if err := mergesort.WriteRun(resource.NewRateLimitedWriter(ctx, f, c.opts.resources), recs, recordCodec(kw)); err != nil {
		_ = f.Close()
		_ = c.opts.fs.Remove(f.Name())
		return nil, &IOError{Op: "write", Path: f.Name(), Err: err}
	}
	return f, nil
}

// SortIndex opens the sort index written by BuildSortIndex read-only.
// Row i of the result is the row holding the i-th smallest value.
func (c *Column) SortIndex(ctx context.Context) (*Column, error) {
	return Open(ctx, c.sortIndexPath(), dtype.Int64Type, ModeRead,
		WithFileSystem(c.opts.fs),
		WithLogger(c.logger),
		WithResourceController(c.opts.resources),
	)
}
