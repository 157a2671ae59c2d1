package resource

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes caps the bytes reserved at once.
	// If 0, memory is not limited.
	MemoryLimitBytes int64

	// MaxWorkers is the maximum number of concurrent jobs.
	// If 0, defaults to 1.
	MaxWorkers int64

	// BytesPerSecond is the maximum IO throughput.
	// If 0, unlimited.
	BytesPerSecond int64
}

// Controller hands out memory, worker and IO budget.
// A nil *Controller imposes no limits.
type Controller struct {
	cfg Config

	memSem *semaphore.Weighted // nil if unlimited

	workers *semaphore.Weighted

	ioLimiter *rate.Limiter // nil if unlimited
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}

	c := &Controller{
		cfg:     cfg,
		workers: semaphore.NewWeighted(cfg.MaxWorkers),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.BytesPerSecond > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.BytesPerSecond), int(cfg.BytesPerSecond))
	}

	return c
}

// AcquireMemory reserves bytes, blocking until they are available or ctx is
// canceled. A request larger than the limit is clamped to the limit so it
// can still run alone.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if err := c.memSem.Acquire(ctx, c.clamp(bytes)); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseMemory returns bytes reserved by AcquireMemory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(c.clamp(bytes))
	}
}

func (c *Controller) clamp(bytes int64) int64 {
	return min(bytes, c.cfg.MemoryLimitBytes)
}

// AcquireWorker reserves a worker slot. Blocks if all slots are busy.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return ctx.Err()
	}
	return c.workers.Acquire(ctx, 1)
}

// ReleaseWorker releases a worker slot.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}
	c.workers.Release(1)
}

// AcquireIO waits until the IO limit allows n bytes. Requests larger than
// one second of budget are split into burst-sized waits.
func (c *Controller) AcquireIO(ctx context.Context, n int) error {
	if c == nil || c.ioLimiter == nil {
		return ctx.Err()
	}
	burst := c.ioLimiter.Burst()
	for n > 0 {
		chunk := min(n, burst)
		if err := c.ioLimiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
