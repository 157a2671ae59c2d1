// Package resource bounds the memory, concurrency and IO bandwidth used by
// background work such as backups.
//
// Three budgets are handed out by a Controller:
//
//   - Memory: AcquireMemory blocks until the bytes fit under MemoryLimitBytes.
//   - Workers: AcquireWorker admits at most MaxWorkers concurrent jobs.
//   - IO: AcquireIO, RateLimitedWriter and RateLimitedReader share one token
//     bucket of BytesPerSecond.
//
// Usage:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 64 << 20,
//	    MaxWorkers:       4,
//	    BytesPerSecond:   32 << 20,
//	})
//
//	if err := rc.AcquireWorker(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseWorker()
//
//	if err := rc.AcquireMemory(ctx, int64(len(buf))); err != nil {
//	    return err
//	}
//	defer rc.ReleaseMemory(int64(len(buf)))
//
//	_, err := io.Copy(resource.NewRateLimitedWriter(ctx, dst, rc), src)
//
// All methods are safe for concurrent use. A nil *Controller imposes no
// limits, so callers can pass one around without nil checks.
package resource
