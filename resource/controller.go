// Package resource bounds the memory and I/O a column store may consume.
//
// A single Controller can be shared by every column of a table:
//
//   - Memory: the decompressed-chunk cache charges its entries here and
//     evicts instead of growing past the limit.
//   - Workers: sort index builds generate per-chunk runs on at most
//     SortWorkers goroutines.
//   - I/O: run files written and read during a sort index build are
//     throttled by a token bucket so foreground reads are not starved.
//
// All methods are safe on a nil *Controller and become no-ops.
package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a reservation would exceed the
// memory limit.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes caps memory charged by chunk caches. 0 means tracked
	// but unlimited.
	MemoryLimitBytes int64

	// SortWorkers is the number of concurrent run generators used when
	// building a sort index. Defaults to 1.
	SortWorkers int

	// IOLimitBytesPerSec throttles sort index run I/O. 0 means unlimited.
	IOLimitBytesPerSec int64
}

// Controller tracks shared resource usage.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted
	memUsed atomic.Int64

	ioLimiter *rate.Limiter
}

// NewController creates a Controller from cfg.
func NewController(cfg Config) *Controller {
	if cfg.SortWorkers <= 0 {
		cfg.SortWorkers = 1
	}
	c := &Controller{cfg: cfg}
	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}
	return c
}

// TryAcquireMemory reserves bytes without blocking and reports whether the
// reservation fits.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}
	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return false
	}
	c.memUsed.Add(bytes)
	return true
}

// AcquireMemory reserves bytes, failing with ErrMemoryLimitExceeded when the
// limit is reached. It never blocks; callers decide how to make room.
func (c *Controller) AcquireMemory(bytes int64) error {
	if !c.TryAcquireMemory(bytes) {
		return ErrMemoryLimitExceeded
	}
	return nil
}

// ReleaseMemory returns a reservation.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the reserved bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured limit, 0 if unlimited.
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// SortWorkers returns the sort index build concurrency.
func (c *Controller) SortWorkers() int {
	if c == nil {
		return 1
	}
	return c.cfg.SortWorkers
}

// AcquireIO waits until the rate limit admits n bytes. Requests larger than
// the bucket are admitted in bucket-sized steps.
func (c *Controller) AcquireIO(ctx context.Context, n int) error {
	if c == nil || c.ioLimiter == nil {
		return ctx.Err()
	}
	burst := c.ioLimiter.Burst()
	for n > 0 {
		step := min(n, burst)
		if err := c.ioLimiter.WaitN(ctx, step); err != nil {
			return err
		}
		n -= step
	}
	return nil
}
