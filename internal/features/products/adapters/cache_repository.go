package adapters

import (
	"context"
	"encoding/json"
	"fmt"

	"fruit-fusion/internal/core/cache"
	"fruit-fusion/internal/features/products/domain"
)

// CacheCatalogRepository implements ports.CatalogCache on the local cache.
type CacheCatalogRepository struct {
	cache cache.Cache
}

// NewCacheCatalogRepository creates a new CacheCatalogRepository.
func NewCacheCatalogRepository(c cache.Cache) *CacheCatalogRepository {
	return &CacheCatalogRepository{
		cache: c,
	}
}

// PutProducts replaces the cached catalog.
func (r *CacheCatalogRepository) PutProducts(ctx context.Context, products []domain.Product) error {
	return r.put(ctx, domain.ProductsKey, products)
}

// FindProducts returns the cached catalog, or cache.ErrNotFound.
func (r *CacheCatalogRepository) FindProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := r.find(ctx, domain.ProductsKey, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// PutCategories replaces the cached category list.
func (r *CacheCatalogRepository) PutCategories(ctx context.Context, categories []domain.Category) error {
	return r.put(ctx, domain.CategoriesKey, categories)
}

// FindCategories returns the cached category list, or cache.ErrNotFound.
func (r *CacheCatalogRepository) FindCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := r.find(ctx, domain.CategoriesKey, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CacheCatalogRepository) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.cache.Set(ctx, key, data, 0); err != nil {
		return fmt.Errorf("failed to cache %s: %w", key, err)
	}
	return nil
}

func (r *CacheCatalogRepository) find(ctx context.Context, key string, out any) error {
	data, err := r.cache.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal cached %s: %w", key, err)
	}
	return nil
}
