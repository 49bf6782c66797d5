package adapters

import (
	"context"
	"testing"

	"fruit-fusion/internal/core/cache"
	"fruit-fusion/internal/features/orders/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCacheRepository(t *testing.T) (*CacheOrderRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	adapter, err := cache.NewRedisAdapter("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })
	return NewCacheOrderRepository(adapter), mr
}

func TestCacheOrderRepository_PutFind(t *testing.T) {
	repo, mr := newTestCacheRepository(t)
	ctx := context.Background()

	orders := []domain.Order{
		domain.Normalize(domain.RawOrder{"id": "-Na", "userId": "u1", "items": []any{map[string]any{"name": "Mango", "price": 300.0, "quantity": 2.0}}}),
	}
	require.NoError(t, repo.Put(ctx, domain.UserOrdersKey("u1"), orders))
	assert.True(t, mr.Exists("orders:user:u1"))

	got, err := repo.Find(ctx, domain.UserOrdersKey("u1"))
	require.NoError(t, err)
	assert.Equal(t, orders, got)
}

func TestCacheOrderRepository_FindMissing(t *testing.T) {
	repo, _ := newTestCacheRepository(t)

	_, err := repo.Find(context.Background(), domain.AllOrdersKey)
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestCacheOrderRepository_FindCorrupt(t *testing.T) {
	repo, mr := newTestCacheRepository(t)
	require.NoError(t, mr.Set(domain.AllOrdersKey, "not json"))

	_, err := repo.Find(context.Background(), domain.AllOrdersKey)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, cache.ErrNotFound)
}
