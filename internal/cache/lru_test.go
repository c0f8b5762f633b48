package cache

import (
	"testing"

	"github.com/hupe1980/colstore/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(off int64) Key { return Key{Offset: off, Nbytes: 10} }

func TestLRUEviction(t *testing.T) {
	c := NewLRU(30, nil)
	c.Set(key(0), make([]byte, 10))
	c.Set(key(1), make([]byte, 10))
	c.Set(key(2), make([]byte, 10))

	// Touch 0 so 1 becomes the oldest.
	_, ok := c.Get(key(0))
	require.True(t, ok)

	c.Set(key(3), make([]byte, 10))
	_, ok = c.Get(key(1))
	assert.False(t, ok)
	for _, k := range []int64{0, 2, 3} {
		_, ok = c.Get(key(k))
		assert.True(t, ok, k)
	}

	s := c.Stats()
	assert.Equal(t, 3, s.Entries)
	assert.Equal(t, int64(30), s.Bytes)
	assert.Equal(t, int64(4), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
}

func TestLRUOversizedAndRemove(t *testing.T) {
	c := NewLRU(8, nil)
	c.Set(key(0), make([]byte, 9))
	_, ok := c.Get(key(0))
	assert.False(t, ok)

	c.Set(key(1), []byte{1, 2})
	c.Remove(key(1))
	c.Remove(key(1))
	s := c.Stats()
	assert.Zero(t, s.Entries)
	assert.Zero(t, s.Bytes)
	assert.Equal(t, int64(1), s.Misses)
}

func TestLRUExternalKeysAreDistinct(t *testing.T) {
	c := NewLRU(100, nil)
	c.Set(Key{Offset: 1, Nbytes: 5}, []byte("inline"))
	c.Set(Key{Offset: 1, Nbytes: 5, External: true}, []byte("blob"))

	v, ok := c.Get(Key{Offset: 1, Nbytes: 5})
	require.True(t, ok)
	assert.Equal(t, "inline", string(v))
	v, ok = c.Get(Key{Offset: 1, Nbytes: 5, External: true})
	require.True(t, ok)
	assert.Equal(t, "blob", string(v))
}

func TestLRUResourceController(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 25})
	a := NewLRU(100, rc)
	b := NewLRU(100, rc)

	a.Set(key(0), make([]byte, 10))
	a.Set(key(1), make([]byte, 10))
	assert.Equal(t, int64(20), rc.MemoryUsage())

	// b has nothing to evict, so the shared limit rejects the entry.
	b.Set(key(0), make([]byte, 10))
	_, ok := b.Get(key(0))
	assert.False(t, ok)

	// a makes room from its own entries.
	a.Set(key(2), make([]byte, 10))
	assert.Equal(t, int64(20), rc.MemoryUsage())
	assert.Equal(t, 2, a.Stats().Entries)

	a.Purge()
	assert.Zero(t, rc.MemoryUsage())
	assert.Zero(t, a.Stats().Entries)
}

func TestNop(t *testing.T) {
	var c ChunkCache = Nop{}
	c.Set(key(0), []byte{1})
	_, ok := c.Get(key(0))
	assert.False(t, ok)
	c.Remove(key(0))
	c.Purge()
	assert.Equal(t, Stats{}, c.Stats())
}
