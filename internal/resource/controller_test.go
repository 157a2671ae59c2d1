package resource

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blocks reports whether acquire is still waiting after a short timeout.
func blocks(t *testing.T, acquire func(ctx context.Context) error) bool {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := acquire(ctx)
	if err == nil {
		return false
	}
	require.ErrorIs(t, err, context.DeadlineExceeded)
	return true
}

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})
	ctx := context.Background()

	require.NoError(t, c.AcquireMemory(ctx, 50))
	require.NoError(t, c.AcquireMemory(ctx, 40))

	assert.True(t, blocks(t, func(ctx context.Context) error { return c.AcquireMemory(ctx, 20) }))

	c.ReleaseMemory(50)
	assert.False(t, blocks(t, func(ctx context.Context) error { return c.AcquireMemory(ctx, 20) }))
}

func TestController_OversizedReservationRunsAlone(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 10})
	ctx := context.Background()

	require.NoError(t, c.AcquireMemory(ctx, 1000))
	assert.True(t, blocks(t, func(ctx context.Context) error { return c.AcquireMemory(ctx, 1) }))

	c.ReleaseMemory(1000)
	assert.False(t, blocks(t, func(ctx context.Context) error { return c.AcquireMemory(ctx, 10) }))
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.AcquireMemory(context.Background(), 1<<40))
	assert.False(t, blocks(t, func(ctx context.Context) error { return c.AcquireMemory(ctx, 1<<40) }))
	c.ReleaseMemory(1 << 40)
}

func TestController_Workers(t *testing.T) {
	c := NewController(Config{MaxWorkers: 2})
	ctx := context.Background()

	require.NoError(t, c.AcquireWorker(ctx))
	require.NoError(t, c.AcquireWorker(ctx))
	assert.True(t, blocks(t, c.AcquireWorker))

	c.ReleaseWorker()
	assert.False(t, blocks(t, c.AcquireWorker))
}

func TestController_IOLargerThanBurst(t *testing.T) {
	c := NewController(Config{BytesPerSecond: 1 << 20})

	// A single WaitN above the burst would fail outright.
	require.NoError(t, c.AcquireIO(context.Background(), 1<<20+1))
}

func TestController_IOCanceled(t *testing.T) {
	c := NewController(Config{BytesPerSecond: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, c.AcquireIO(ctx, 100), context.Canceled)
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	ctx := context.Background()

	require.NoError(t, c.AcquireMemory(ctx, 10))
	require.NoError(t, c.AcquireWorker(ctx))
	require.NoError(t, c.AcquireIO(ctx, 10))
	c.ReleaseMemory(10)
	c.ReleaseWorker()
}

func TestRateLimited_ReaderWriter(t *testing.T) {
	c := NewController(Config{BytesPerSecond: 1 << 20})
	data := bytes.Repeat([]byte("lexigo"), 1000)

	var out bytes.Buffer
	w := NewRateLimitedWriter(context.Background(), &out, c)
	r := NewRateLimitedReader(context.Background(), bytes.NewReader(data), c)

	n, err := io.Copy(w, r)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
	assert.Equal(t, data, out.Bytes())
}
