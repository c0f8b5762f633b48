package colstore

import (
	"log/slog"

	"github.com/hupe1980/colstore/blobstore"
	"github.com/hupe1980/colstore/compression"
	"github.com/hupe1980/colstore/internal/fs"
	"github.com/hupe1980/colstore/resource"
)

// Defaults for new columns.
const (
	DefaultChunkSize = 1 << 20 // 1 MiB uncompressed
	DefaultCacheSize = 1 << 30 // 1 GiB of decompressed chunks
)

// ExternalPolicy decides whether a new chunk of nrows rows compressing to
// nbytes is stored in the external blob store instead of the data file.
type ExternalPolicy func(nrows int64, nbytes int) bool

// ExternalAbove stores chunks whose compressed size exceeds n bytes
// externally.
func ExternalAbove(n int) ExternalPolicy {
	return func(_ int64, nbytes int) bool { return nbytes > n }
}

// ExternalAlways stores every chunk externally.
func ExternalAlways() ExternalPolicy {
	return func(int64, int) bool { return true }
}

type options struct {
	compression compression.Config
	chunkSize   int64
	cacheSize   int64
	logger      *Logger
	verbose     bool
	store       blobstore.BlobStore
	external    ExternalPolicy
	fs          fs.FileSystem
	writerLock  bool
	syncWrites  bool
	resources   *resource.Controller
	metrics     MetricsCollector
}

func defaultOptions() options {
	return options{
		compression: compression.DefaultConfig(),
		chunkSize:   DefaultChunkSize,
		cacheSize:   DefaultCacheSize,
		fs:          fs.Default,
		syncWrites:  true,
		metrics:     NoopMetricsCollector{},
	}
}

// Option configures Open.
//
// Compression and chunk size only apply when a column is created; an
// existing column keeps the configuration recorded in its directory.
type Option func(*options)

// WithCompression sets the codec of new columns.
func WithCompression(cfg compression.Config) Option {
	return func(o *options) { o.compression = cfg }
}

// WithChunkSize sets the target uncompressed chunk size in bytes of new
// columns.
func WithChunkSize(bytes int64) Option {
	return func(o *options) { o.chunkSize = bytes }
}

// WithCacheSize bounds the decompressed-chunk cache. 0 disables it.
func WithCacheSize(bytes int64) Option {
	return func(o *options) { o.cacheSize = bytes }
}

// WithLogger sets the logger. It takes precedence over WithVerbose.
func WithLogger(l *Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithVerbose logs column operations at debug level to stderr. It has no
// other effect.
func WithVerbose(v bool) Option {
	return func(o *options) { o.verbose = v }
}

// WithExternalStore stores chunks selected by policy in store. Existing
// external chunks are always read from store. A nil policy never
// externalizes new chunks.
func WithExternalStore(store blobstore.BlobStore, policy ExternalPolicy) Option {
	return func(o *options) {
		o.store = store
		o.external = policy
	}
}

// WithFileSystem replaces the local file system, e.g. for fault injection.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys != nil {
			o.fs = fsys
		}
	}
}

// WithWriterLock takes an advisory exclusive lock on the column when it is
// opened for writing. A second locking writer fails with ErrLocked.
func WithWriterLock() Option {
	return func(o *options) { o.writerLock = true }
}

// WithSyncWrites controls whether chunk payloads are fsynced before their
// directory record is committed. Enabled by default.
func WithSyncWrites(v bool) Option {
	return func(o *options) { o.syncWrites = v }
}

// WithResourceController charges cached chunks to rc and bounds the workers
// and I/O of sort index builds. rc may be shared by many columns.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) { o.resources = rc }
}

// WithMetricsCollector sets the collector notified after every operation.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.metrics = m
	}
}

func (o *options) resolveLogger() *Logger {
	switch {
	case o.logger != nil:
		return o.logger
	case o.verbose:
		return NewTextLogger(slog.LevelDebug)
	default:
		return NoopLogger()
	}
}
