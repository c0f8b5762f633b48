package chunkdir

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"sync"

	"github.com/hupe1980/colstore/blobstore"
	"github.com/hupe1980/colstore/internal/conv"
	"github.com/hupe1980/colstore/internal/flock"
	"github.com/hupe1980/colstore/internal/fs"
)

// Config describes the files backing a Directory.
type Config struct {
	// DataPath is the data file, DirPath the directory file.
	DataPath string
	DirPath  string

	// FS defaults to the local file system.
	FS fs.FileSystem

	// ReadOnly opens both files read-only; they must exist.
	ReadOnly bool
	// Truncate discards existing contents (read-write only).
	Truncate bool
	// Lock takes an exclusive advisory lock on the directory file before
	// anything is truncated or written (read-write only). A held lock
	// fails Open with flock.ErrLocked.
	Lock bool

	// Header is written when the directory file is new or truncated.
	// Existing directories keep their persisted header.
	Header Header

	// Store holds external chunk payloads; BlobPrefix names them.
	Store      blobstore.BlobStore
	BlobPrefix string

	// Sync fsyncs payload before its record is committed and the
	// directory file after.
	Sync bool
}

// Directory is the chunk directory of one column. It is safe for concurrent
// use; mutations are serialized.
type Directory struct {
	cfg Config

	mu       sync.RWMutex
	dir      fs.File
	data     fs.File
	locked   bool
	header   Header
	descs    []Descriptor
	nrows    int64
	dataEnd  int64
	nextBlob int64
	closed   bool
}

// Open opens or creates a directory.
func Open(cfg Config) (*Directory, error) {
	if cfg.FS == nil {
		cfg.FS = fs.Default
	}
	flag := os.O_RDWR | os.O_CREATE
	if cfg.ReadOnly {
		flag = os.O_RDONLY
	}

	dir, err := cfg.FS.OpenFile(cfg.DirPath, flag, 0o644)
	if err != nil {
		return nil, ioErr("open", cfg.DirPath, err)
	}
	data, err := cfg.FS.OpenFile(cfg.DataPath, flag, 0o644)
	if err != nil {
		_ = dir.Close()
		return nil, ioErr("open", cfg.DataPath, err)
	}

	d := &Directory{cfg: cfg, dir: dir, data: data}
	if err := d.open(); err != nil {
		if d.locked {
			_ = flock.Unlock(dir.Fd())
		}
		_ = dir.Close()
		_ = data.Close()
		return nil, err
	}
	return d, nil
}

// open locks and truncates as configured, then loads the directory. Files
// are only modified once the lock is held.
func (d *Directory) open() error {
	if d.cfg.ReadOnly {
		return d.load()
	}
	if d.cfg.Lock {
		if err := flock.Lock(d.dir.Fd()); err != nil {
			return fmt.Errorf("%s: %w", d.cfg.DirPath, err)
		}
		d.locked = true
	}
	if d.cfg.Truncate {
		if err := d.dir.Truncate(0); err != nil {
			return ioErr("truncate", d.cfg.DirPath, err)
		}
		if err := d.data.Truncate(0); err != nil {
			return ioErr("truncate", d.cfg.DataPath, err)
		}
	}
	return d.load()
}

func (d *Directory) load() error {
	dirInfo, err := d.dir.Stat()
	if err != nil {
		return ioErr("stat", d.cfg.DirPath, err)
	}
	dataInfo, err := d.data.Stat()
	if err != nil {
		return ioErr("stat", d.cfg.DataPath, err)
	}
	d.dataEnd = dataInfo.Size()

	if dirInfo.Size() == 0 {
		if d.cfg.ReadOnly {
			return fmt.Errorf("%w: %s is empty", ErrCorrupt, d.cfg.DirPath)
		}
		return d.initHeader()
	}

	buf := make([]byte, dirInfo.Size())
	if _, err := d.dir.ReadAt(buf, 0); err != nil && !errors.Is(err, io.EOF) {
		return ioErr("read", d.cfg.DirPath, err)
	}
	h, err := unmarshalHeader(buf)
	if err != nil {
		return err
	}
	d.header = h

	body := buf[HeaderSize:]
	whole := len(body) / RecordSize * RecordSize
	if whole != len(body) && !d.cfg.ReadOnly {
		// A torn trailing record from an interrupted append was never
		// committed.
		if err := d.dir.Truncate(int64(HeaderSize + whole)); err != nil {
			return ioErr("truncate", d.cfg.DirPath, err)
		}
	}

	d.descs = make([]Descriptor, 0, whole/RecordSize)
	for off := 0; off < whole; off += RecordSize {
		desc, err := decodeRecord(body[off:])
		if err != nil {
			return err
		}
		if desc.RowStart != d.nrows {
			return fmt.Errorf("%w: chunk %d starts at row %d, expected %d", ErrCorrupt, len(d.descs), desc.RowStart, d.nrows)
		}
		if !desc.IsExternal && !withinData(desc, d.dataEnd) {
			return fmt.Errorf("%w: chunk %d at %d+%d exceeds data file of %d bytes", ErrCorrupt, len(d.descs), desc.Offset, desc.Nbytes, d.dataEnd)
		}
		if desc.IsExternal && desc.Offset >= d.nextBlob {
			d.nextBlob = desc.Offset + 1
		}
		d.descs = append(d.descs, desc)
		d.nrows += desc.NRows
	}
	return nil
}

// withinData reports whether the inline payload of desc lies inside a data
// file of size end, without overflowing.
func withinData(desc Descriptor, end int64) bool {
	return desc.Nbytes <= end && desc.Offset <= end-desc.Nbytes
}

func (d *Directory) initHeader() error {
	if err := d.cfg.Header.Validate(); err != nil {
		return err
	}
	d.header = d.cfg.Header
	if _, err := d.dir.WriteAt(d.header.marshal(), 0); err != nil {
		return ioErr("write", d.cfg.DirPath, err)
	}
	return d.syncDir()
}

// Header returns the persisted column header.
func (d *Directory) Header() Header { return d.header }

// Len returns the number of chunks.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.descs)
}

// NRows returns the total number of rows.
func (d *Directory) NRows() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.nrows
}

// DataSize returns the size of the data file.
func (d *Directory) DataSize() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dataEnd
}

// ReadOnly reports whether mutations are rejected.
func (d *Directory) ReadOnly() bool { return d.cfg.ReadOnly }

// Fd returns the descriptor of the directory file, for locking.
func (d *Directory) Fd() uintptr { return d.dir.Fd() }

// Descriptor returns chunk i.
func (d *Directory) Descriptor(i int) (Descriptor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i < 0 || i >= len(d.descs) {
		return Descriptor{}, fmt.Errorf("%w: chunk %d of %d", ErrOutOfRange, i, len(d.descs))
	}
	return d.descs[i], nil
}

// Descriptors returns a copy of all descriptors in row order.
func (d *Directory) Descriptors() []Descriptor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.descs)
}

// Locate returns the index and descriptor of the chunk holding row.
func (d *Directory) Locate(row int64) (int, Descriptor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if row < 0 || row >= d.nrows {
		return 0, Descriptor{}, fmt.Errorf("%w: row %d, nrows %d", ErrOutOfRange, row, d.nrows)
	}
	i := d.search(row)
	return i, d.descs[i], nil
}

// search returns the chunk containing row; row must be in range.
func (d *Directory) search(row int64) int {
	return sort.Search(len(d.descs), func(i int) bool { return d.descs[i].RowEnd() > row })
}

// LocateRange returns the chunks overlapping [start, start+count) in
// ascending row order.
func (d *Directory) LocateRange(start, count int64) ([]int, []Descriptor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if start < 0 || count < 0 || start+count > d.nrows || start+count < start {
		return nil, nil, fmt.Errorf("%w: rows [%d, %d), nrows %d", ErrOutOfRange, start, start+count, d.nrows)
	}
	if count == 0 {
		return nil, nil, nil
	}
	first := d.search(start)
	last := d.search(start + count - 1)
	idx := make([]int, 0, last-first+1)
	for i := first; i <= last; i++ {
		idx = append(idx, i)
	}
	return idx, slices.Clone(d.descs[first : last+1]), nil
}

// Append stores payload as a new chunk of nrows rows following the current
// last chunk, and returns its descriptor.
func (d *Directory) Append(ctx context.Context, nrows int64, payload []byte, external bool) (Descriptor, error) {
	if nrows <= 0 {
		return Descriptor{}, fmt.Errorf("chunkdir: chunk must hold at least one row, got %d", nrows)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkWritable(); err != nil {
		return Descriptor{}, err
	}

	desc, err := d.writePayload(ctx, payload, external)
	if err != nil {
		return Descriptor{}, err
	}
	desc.RowStart = d.nrows
	desc.NRows = nrows

	if err := d.commit(len(d.descs), desc); err != nil {
		return Descriptor{}, err
	}
	d.descs = append(d.descs, desc)
	d.nrows += nrows
	return desc, nil
}

// Replace overwrites the record of chunk i with desc, whose payload must
// already be durable. The row range must be unchanged.
func (d *Directory) Replace(i int, desc Descriptor) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkWritable(); err != nil {
		return err
	}
	return d.replaceLocked(i, desc)
}

func (d *Directory) replaceLocked(i int, desc Descriptor) error {
	if i < 0 || i >= len(d.descs) {
		return fmt.Errorf("%w: chunk %d of %d", ErrOutOfRange, i, len(d.descs))
	}
	old := d.descs[i]
	if desc.RowStart != old.RowStart || desc.NRows != old.NRows {
		return fmt.Errorf("%w: chunk %d rows [%d, %d) replaced by [%d, %d)", ErrRowsMismatch,
			i, old.RowStart, old.RowEnd(), desc.RowStart, desc.RowEnd())
	}
	if !desc.IsExternal && !withinData(desc, d.dataEnd) {
		return fmt.Errorf("%w: payload at %d+%d is beyond the data file", ErrCorrupt, desc.Offset, desc.Nbytes)
	}
	if err := d.commit(i, desc); err != nil {
		return err
	}
	d.descs[i] = desc
	return nil
}

// Rewrite stores payload in fresh space and then points chunk i at it. It
// returns the old and new descriptors. A replaced external blob is deleted
// after the commit; failure to delete it leaves an unreferenced blob.
func (d *Directory) Rewrite(ctx context.Context, i int, payload []byte, external bool) (old, desc Descriptor, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkWritable(); err != nil {
		return Descriptor{}, Descriptor{}, err
	}
	if i < 0 || i >= len(d.descs) {
		return Descriptor{}, Descriptor{}, fmt.Errorf("%w: chunk %d of %d", ErrOutOfRange, i, len(d.descs))
	}
	old = d.descs[i]

	desc, err = d.writePayload(ctx, payload, external)
	if err != nil {
		return Descriptor{}, Descriptor{}, err
	}
	desc.RowStart, desc.NRows = old.RowStart, old.NRows
	if err := d.replaceLocked(i, desc); err != nil {
		return Descriptor{}, Descriptor{}, err
	}

	if old.IsExternal {
		_ = d.cfg.Store.Delete(ctx, d.BlobName(old.Offset))
	}
	return old, desc, nil
}

// ReadPayload returns the compressed payload described by desc.
func (d *Directory) ReadPayload(ctx context.Context, desc Descriptor) ([]byte, error) {
	if desc.IsExternal {
		if d.cfg.Store == nil {
			return nil, ErrNoExternalStore
		}
		name := d.BlobName(desc.Offset)
		b, err := blobstore.ReadAll(ctx, d.cfg.Store, name, desc.Nbytes)
		if err != nil {
			return nil, ioErr("read blob", name, err)
		}
		return b, nil
	}

	n, err := conv.Int64ToInt(desc.Nbytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	buf := make([]byte, n)
	if _, err := d.data.ReadAt(buf, desc.Offset); err != nil && !(errors.Is(err, io.EOF) && n == 0) {
		return nil, ioErr("read", d.cfg.DataPath, err)
	}
	return buf, nil
}

// BlobName returns the external blob name for sequence number seq.
func (d *Directory) BlobName(seq int64) string {
	return fmt.Sprintf("%s.%016x.chunk", d.cfg.BlobPrefix, seq)
}

// Sync flushes both files.
func (d *Directory) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cfg.ReadOnly || d.closed {
		return nil
	}
	if err := d.data.Sync(); err != nil {
		return ioErr("sync", d.cfg.DataPath, err)
	}
	if err := d.dir.Sync(); err != nil {
		return ioErr("sync", d.cfg.DirPath, err)
	}
	return nil
}

// Close syncs (when writable) and closes both files. It is idempotent.
func (d *Directory) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	var errs []error
	if d.locked {
		if err := flock.Unlock(d.dir.Fd()); err != nil {
			errs = append(errs, ioErr("unlock", d.cfg.DirPath, err))
		}
	}
	if !d.cfg.ReadOnly {
		if err := d.data.Sync(); err != nil {
			errs = append(errs, ioErr("sync", d.cfg.DataPath, err))
		}
		if err := d.dir.Sync(); err != nil {
			errs = append(errs, ioErr("sync", d.cfg.DirPath, err))
		}
	}
	if err := d.data.Close(); err != nil {
		errs = append(errs, ioErr("close", d.cfg.DataPath, err))
	}
	if err := d.dir.Close(); err != nil {
		errs = append(errs, ioErr("close", d.cfg.DirPath, err))
	}
	return errors.Join(errs...)
}

func (d *Directory) checkWritable() error {
	if d.closed {
		return os.ErrClosed
	}
	if d.cfg.ReadOnly {
		return ErrReadOnly
	}
	return nil
}

// writePayload makes payload durable in fresh space and returns a
// descriptor with Offset, Nbytes and IsExternal set.
func (d *Directory) writePayload(ctx context.Context, payload []byte, external bool) (Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return Descriptor{}, err
	}
	if external {
		if d.cfg.Store == nil {
			return Descriptor{}, ErrNoExternalStore
		}
		seq := d.nextBlob
		name := d.BlobName(seq)
		if err := d.cfg.Store.Put(ctx, name, payload); err != nil {
			return Descriptor{}, ioErr("put blob", name, err)
		}
		d.nextBlob++
		return Descriptor{Offset: seq, Nbytes: int64(len(payload)), IsExternal: true}, nil
	}

	off := d.dataEnd
	if _, err := d.data.WriteAt(payload, off); err != nil {
		return Descriptor{}, ioErr("write", d.cfg.DataPath, err)
	}
	if d.cfg.Sync {
		if err := d.data.Sync(); err != nil {
			return Descriptor{}, ioErr("sync", d.cfg.DataPath, err)
		}
	}
	d.dataEnd += int64(len(payload))
	return Descriptor{Offset: off, Nbytes: int64(len(payload))}, nil
}

// commit writes the record of chunk i.
func (d *Directory) commit(i int, desc Descriptor) error {
	rec := desc.appendRecord(make([]byte, 0, RecordSize))
	if _, err := d.dir.WriteAt(rec, int64(HeaderSize+i*RecordSize)); err != nil {
		return ioErr("write", d.cfg.DirPath, err)
	}
	return d.syncDir()
}

func (d *Directory) syncDir() error {
	if !d.cfg.Sync {
		return nil
	}
	if err := d.dir.Sync(); err != nil {
		return ioErr("sync", d.cfg.DirPath, err)
	}
	return nil
}
