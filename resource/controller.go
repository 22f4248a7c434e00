// Package resource provides the process-wide capacity policy consumed by load
// validation and orchestration.
//
// A Controller tracks committed memory (datasets that finished loading),
// planned memory (loads that passed validation but have not completed), a
// bounded background-worker pool and an optional IO throughput limit. It is
// constructed explicitly and passed to the loader; there is no ambient global
// instance.
package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/arloliu/trako/internal/sysmem"
)

// ErrMemoryLimitExceeded is returned when a reservation would exceed the
// memory limit.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// DefaultBudgetFraction is the fraction of total physical memory available to
// loaded trajectory data when no explicit limit is configured.
const DefaultBudgetFraction = 0.5

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for managed memory.
	// If 0, the limit defaults to DefaultBudgetFraction of physical memory.
	MemoryLimitBytes int64

	// MaxBackgroundWorkers is the maximum number of concurrent background
	// loads. If 0, defaults to 1.
	MaxBackgroundWorkers int64

	// IOLimitBytesPerSec is the maximum IO throughput for shard processing.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages global resources (memory, concurrency, IO).
type Controller struct {
	cfg Config

	// Memory
	memSem     *semaphore.Weighted
	memUsed    atomic.Int64
	memPlanned atomic.Int64

	// Concurrency
	bgSem *semaphore.Weighted

	// IO
	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MemoryLimitBytes <= 0 {
		cfg.MemoryLimitBytes = int64(float64(sysmem.Total()) * DefaultBudgetFraction)
	}
	if cfg.MaxBackgroundWorkers <= 0 {
		cfg.MaxBackgroundWorkers = 1
	}

	c := &Controller{
		cfg:    cfg,
		memSem: semaphore.NewWeighted(cfg.MemoryLimitBytes),
		bgSem:  semaphore.NewWeighted(cfg.MaxBackgroundWorkers),
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireMemory attempts to reserve committed memory.
// Returns ErrMemoryLimitExceeded if the limit would be exceeded.
// Non-blocking; callers control retry/backoff policy.
func (c *Controller) AcquireMemory(bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if !c.memSem.TryAcquire(bytes) {
		return ErrMemoryLimitExceeded
	}
	c.memUsed.Add(bytes)

	return nil
}

// ReleaseMemory releases reserved committed memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	c.memSem.Release(bytes)
	c.memUsed.Add(-bytes)
}

// AddPlanned registers externally-planned usage: memory a validated load is
// expected to commit. Planned usage reduces Remaining() but does not hold the
// semaphore, so a load that never materializes cannot wedge the budget.
func (c *Controller) AddPlanned(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	c.memPlanned.Add(bytes)
}

// RemovePlanned withdraws previously planned usage.
func (c *Controller) RemovePlanned(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	c.memPlanned.Add(-bytes)
}

// MemoryUsage returns the committed memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}

	return c.memUsed.Load()
}

// MemoryLimit returns the configured memory limit in bytes.
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}

	return c.cfg.MemoryLimitBytes
}

// Remaining returns the memory still available to new loads: the limit minus
// committed and planned usage. Never negative.
func (c *Controller) Remaining() int64 {
	if c == nil {
		return 0
	}

	remaining := c.cfg.MemoryLimitBytes - c.memUsed.Load() - c.memPlanned.Load()
	if remaining < 0 {
		remaining = 0
	}

	return remaining
}

// AcquireBackground blocks until a background worker slot is available or ctx
// is cancelled.
func (c *Controller) AcquireBackground(ctx context.Context) error {
	if c == nil {
		return nil
	}

	return c.bgSem.Acquire(ctx, 1)
}

// TryAcquireBackground attempts to reserve a background worker slot without
// blocking.
func (c *Controller) TryAcquireBackground() bool {
	if c == nil {
		return true
	}

	return c.bgSem.TryAcquire(1)
}

// ReleaseBackground releases a background worker slot.
func (c *Controller) ReleaseBackground() {
	if c == nil {
		return
	}
	c.bgSem.Release(1)
}

// AcquireIO waits until the IO limiter admits n bytes, or ctx is cancelled.
// A nil limiter admits immediately.
func (c *Controller) AcquireIO(ctx context.Context, n int) error {
	if c == nil || c.ioLimiter == nil || n <= 0 {
		return nil
	}

	burst := c.ioLimiter.Burst()
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		if err := c.ioLimiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}

	return nil
}
