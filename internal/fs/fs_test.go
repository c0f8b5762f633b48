package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "col")
	require.NoError(t, Default.MkdirAll(dir, 0o755))

	name := filepath.Join(dir, "x.array")
	f, err := Default.OpenFile(name, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)

	_, err = f.WriteAt([]byte("world"), 5)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("hello"), 0)
	require.NoError(t, err)
	require.NoError(t, f.Sync())

	buf := make([]byte, 10)
	_, err = f.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "helloworld", string(buf))

	require.NoError(t, f.Truncate(5))
	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
	require.NoError(t, f.Close())

	ok, err := Exists(Default, name)
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := Default.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	tmp, err := Default.CreateTemp(dir, "run-*")
	require.NoError(t, err)
	require.NoError(t, tmp.Close())
	require.NoError(t, Default.Rename(tmp.Name(), name+".new"))
	require.NoError(t, Default.Remove(name+".new"))

	require.NoError(t, Default.Remove(name))
	ok, err = Exists(Default, name)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFaultyFSWriteLimit(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule(".array", Fault{FailAfterBytes: 8})

	f, err := ffs.OpenFile(filepath.Join(dir, "c.array"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.WriteAt([]byte("12345678"), 0)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("9"), 8)
	assert.ErrorIs(t, err, ErrInjected)
	_, err = f.Write([]byte("9"))
	assert.ErrorIs(t, err, ErrInjected)
	assert.Equal(t, int64(8), ffs.Written())

	// Unmatched files are unaffected.
	g, err := ffs.OpenFile(filepath.Join(dir, "c.chunks"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	_, err = g.Write(make([]byte, 64))
	require.NoError(t, err)
	require.NoError(t, g.Close())
}

func TestFaultyFSSyncReadClose(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("boom")
	ffs := NewFaultyFS(Default)
	ffs.AddRule("c", Fault{FailAfterBytes: -1, FailOnSync: true})
	ffs.AddRule("c.chunks", Fault{FailAfterBytes: -1, FailOnRead: true, FailOnClose: true, Err: boom})

	f, err := ffs.OpenFile(filepath.Join(dir, "c.array"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	assert.ErrorIs(t, f.Sync(), ErrInjected)
	require.NoError(t, f.Close())

	g, err := ffs.OpenFile(filepath.Join(dir, "c.chunks"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	_, err = g.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, g.Close(), boom)

	ffs.ClearRules()
	h, err := ffs.OpenFile(filepath.Join(dir, "c.chunks"), os.O_RDWR, 0o644)
	require.NoError(t, err)
	require.NoError(t, h.Sync())
	require.NoError(t, h.Close())
}
