package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"fruit-fusion/internal/core/logger"
	"fruit-fusion/internal/core/store"
	"fruit-fusion/internal/features/products/domain"

	"go.uber.org/zap"
)

// StoreCatalogRepository implements ports.CatalogRepository on the hosted store.
type StoreCatalogRepository struct {
	db     store.Database
	logger *zap.Logger
}

// NewStoreCatalogRepository creates a new StoreCatalogRepository.
func NewStoreCatalogRepository(db store.Database) *StoreCatalogRepository {
	return &StoreCatalogRepository{
		db:     db,
		logger: logger.Named("products.store"),
	}
}

// ListProducts returns every product, sorted by name.
func (r *StoreCatalogRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	children, err := r.children(ctx, domain.ProductsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return r.decodeProducts(children), nil
}

// GetProduct returns a single product.
func (r *StoreCatalogRepository) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var data json.RawMessage
	if err := r.db.Get(ctx, domain.ProductPath(id), &data); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	p, err := domain.ParseProduct(id, data)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s is not an object: %w", id, err)
	}
	return p, nil
}

// CreateProduct appends a product and returns its key.
func (r *StoreCatalogRepository) CreateProduct(ctx context.Context, p domain.Product) (string, error) {
	id, err := r.db.Push(ctx, domain.ProductsPath, p.Record())
	if err != nil {
		return "", fmt.Errorf("failed to create product: %w", err)
	}
	return id, nil
}

// UpdateProduct patches the given product fields.
func (r *StoreCatalogRepository) UpdateProduct(ctx context.Context, id string, patch map[string]any) error {
	if err := r.db.Update(ctx, domain.ProductPath(id), patch); err != nil {
		return fmt.Errorf("failed to update product %s: %w", id, err)
	}
	return nil
}

// DeleteProduct removes a product.
func (r *StoreCatalogRepository) DeleteProduct(ctx context.Context, id string) error {
	if err := r.db.Remove(ctx, domain.ProductPath(id)); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}

// ListCategories returns every category, sorted by name.
func (r *StoreCatalogRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	children, err := r.children(ctx, domain.CategoriesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories := make([]domain.Category, 0, len(children))
	for id, data := range children {
		c, err := domain.ParseCategory(id, data)
		if err != nil {
			r.logger.Warn("Skipping category record that is not an object", zap.String("category_id", id))
			continue
		}
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

// CreateCategory appends a category and returns its key.
func (r *StoreCatalogRepository) CreateCategory(ctx context.Context, c domain.Category) (string, error) {
	id, err := r.db.Push(ctx, domain.CategoriesPath, c.Record())
	if err != nil {
		return "", fmt.Errorf("failed to create category: %w", err)
	}
	return id, nil
}

// WatchProducts streams the catalog, calling onChange with every product after each event.
func (r *StoreCatalogRepository) WatchProducts(ctx context.Context, onChange func([]domain.Product)) error {
	snapshot := &store.Snapshot{}
	return r.db.Subscribe(ctx, domain.ProductsPath, func(ev store.Event) {
		if err := snapshot.Apply(ev); err != nil {
			r.logger.Warn("Ignoring unreadable product event", zap.String("path", ev.Path), zap.Error(err))
			return
		}
		onChange(r.decodeProducts(snapshot.Children()))
	})
}

func (r *StoreCatalogRepository) children(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	var children map[string]json.RawMessage
	if err := r.db.Get(ctx, path, &children); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, err
	}
	return children, nil
}

func (r *StoreCatalogRepository) decodeProducts(children map[string]json.RawMessage) []domain.Product {
	products := make([]domain.Product, 0, len(children))
	for id, data := range children {
		p, err := domain.ParseProduct(id, data)
		if err != nil {
			r.logger.Warn("Skipping product record that is not an object", zap.String("product_id", id))
			continue
		}
		products = append(products, p)
	}
	domain.SortByName(products)
	return products
}
