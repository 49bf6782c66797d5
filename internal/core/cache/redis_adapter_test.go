package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T) (*RedisAdapter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	adapter, err := NewRedisAdapter("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })

	return adapter, mr
}

func TestRedisAdapter_GetSet(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	ctx := context.Background()

	err := adapter.Set(ctx, "products", []byte(`[{"id":"p1"}]`), 10*time.Second)
	assert.NoError(t, err)

	retrieved, err := adapter.Get(ctx, "products")
	assert.NoError(t, err)
	assert.Equal(t, []byte(`[{"id":"p1"}]`), retrieved)
}

func TestRedisAdapter_GetNotFound(t *testing.T) {
	adapter, _ := newTestAdapter(t)

	_, err := adapter.Get(context.Background(), "non_existent_key")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "non_existent_key")
}

func TestRedisAdapter_Delete(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "delete_test", []byte("value"), 0))

	assert.NoError(t, adapter.Delete(ctx, "delete_test"))

	_, err := adapter.Get(ctx, "delete_test")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisAdapter_DeleteMany(t *testing.T) {
	adapter, mr := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "orders", []byte("[]"), 0))
	require.NoError(t, adapter.Set(ctx, "orders:user:u1", []byte("[]"), 0))
	require.NoError(t, adapter.Set(ctx, "products", []byte("[]"), 0))

	assert.NoError(t, adapter.DeleteMany(ctx, "orders", "orders:user:u1"))
	assert.NoError(t, adapter.DeleteMany(ctx))

	assert.False(t, mr.Exists("orders"))
	assert.False(t, mr.Exists("orders:user:u1"))
	assert.True(t, mr.Exists("products"))
}

func TestRedisAdapter_TTL(t *testing.T) {
	adapter, mr := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "ttl_test", []byte("expires_soon"), 1*time.Second))

	_, err := adapter.Get(ctx, "ttl_test")
	assert.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = adapter.Get(ctx, "ttl_test")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisAdapter_Queue(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.PushBack(ctx, "outbox", []byte("first")))
	require.NoError(t, adapter.PushBack(ctx, "outbox", []byte("second")))

	n, err := adapter.Len(ctx, "outbox")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	head, err := adapter.PopFront(ctx, "outbox")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), head)

	require.NoError(t, adapter.PushFront(ctx, "outbox", head))

	head, err = adapter.PopFront(ctx, "outbox")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), head)

	tail, err := adapter.PopFront(ctx, "outbox")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), tail)

	_, err = adapter.PopFront(ctx, "outbox")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err = adapter.Len(ctx, "outbox")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisAdapter_Ping(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	assert.NoError(t, adapter.Ping(context.Background()))
}

func TestRedisAdapter_PingDown(t *testing.T) {
	adapter, mr := newTestAdapter(t)
	mr.Close()

	err := adapter.Ping(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestRedisAdapter_InvalidURL(t *testing.T) {
	_, err := NewRedisAdapter("invalid://url")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse Redis URL")
}
