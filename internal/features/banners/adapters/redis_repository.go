package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fruit-fusion/internal/core/cache"
	"fruit-fusion/internal/features/banners/domain"
)

const bannerCacheKey = "site_banner"

// RedisBannerRepository implements ports.BannerRepository using the cache adaptation.
type RedisBannerRepository struct {
	cache cache.Cache
}

// NewRedisBannerRepository creates a new RedisBannerRepository.
func NewRedisBannerRepository(c cache.Cache) *RedisBannerRepository {
	return &RedisBannerRepository{
		cache: c,
	}
}

// Save stores the banner in the cache. A zero duration never expires.
func (r *RedisBannerRepository) Save(ctx context.Context, banner *domain.Banner) error {
	data, err := json.Marshal(banner)
	if err != nil {
		return fmt.Errorf("failed to marshal banner: %w", err)
	}

	ttl := time.Duration(banner.Duration) * time.Second
	if err := r.cache.Set(ctx, bannerCacheKey, data, ttl); err != nil {
		return fmt.Errorf("failed to save banner to cache: %w", err)
	}

	return nil
}

// Get retrieves the banner from the cache. It returns nil, nil when no banner is set.
func (r *RedisBannerRepository) Get(ctx context.Context) (*domain.Banner, error) {
	data, err := r.cache.Get(ctx, bannerCacheKey)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get banner from cache: %w", err)
	}

	var banner domain.Banner
	if err := json.Unmarshal(data, &banner); err != nil {
		return nil, fmt.Errorf("failed to unmarshal banner: %w", err)
	}

	return &banner, nil
}

// Delete removes the banner from the cache.
func (r *RedisBannerRepository) Delete(ctx context.Context) error {
	if err := r.cache.Delete(ctx, bannerCacheKey); err != nil {
		return fmt.Errorf("failed to delete banner from cache: %w", err)
	}
	return nil
}
