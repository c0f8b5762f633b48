package cache

// Key identifies a chunk payload by location.
type Key struct {
	Offset   int64
	Nbytes   int64
	External bool
}

// ChunkCache is a cache of immutable decompressed chunks. Returned slices
// must be treated as read-only.
type ChunkCache interface {
	Get(key Key) ([]byte, bool)
	Set(key Key, b []byte)
	Remove(key Key)
	Purge()
	Stats() Stats
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
	Bytes   int64
}

// Nop is a ChunkCache that stores nothing.
type Nop struct{}

func (Nop) Get(Key) ([]byte, bool) { return nil, false }
func (Nop) Set(Key, []byte)        {}
func (Nop) Remove(Key)             {}
func (Nop) Purge()                 {}
func (Nop) Stats() Stats           { return Stats{} }
