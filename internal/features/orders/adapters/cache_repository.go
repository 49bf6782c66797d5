package adapters

import (
	"context"
	"encoding/json"
	"fmt"

	"fruit-fusion/internal/core/cache"
	"fruit-fusion/internal/features/orders/domain"
)

// CacheOrderRepository implements ports.OrderCache on the local cache.
type CacheOrderRepository struct {
	cache cache.Cache
}

// NewCacheOrderRepository creates a new CacheOrderRepository.
func NewCacheOrderRepository(c cache.Cache) *CacheOrderRepository {
	return &CacheOrderRepository{
		cache: c,
	}
}

// Put replaces the cached list under key. Cached lists do not expire.
func (r *CacheOrderRepository) Put(ctx context.Context, key string, orders []domain.Order) error {
	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("failed to marshal orders: %w", err)
	}
	if err := r.cache.Set(ctx, key, data, 0); err != nil {
		return fmt.Errorf("failed to cache orders under %s: %w", key, err)
	}
	return nil
}

// Find returns the cached list under key, or cache.ErrNotFound.
func (r *CacheOrderRepository) Find(ctx context.Context, key string) ([]domain.Order, error) {
	data, err := r.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var orders []domain.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached orders: %w", err)
	}
	return orders, nil
}
