package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fruit-fusion/internal/core/cache"
	"fruit-fusion/internal/core/logger"
	"fruit-fusion/internal/core/outbox"
	"fruit-fusion/internal/core/store"
	"fruit-fusion/internal/features/products/domain"
	"fruit-fusion/internal/features/products/ports"

	"go.uber.org/zap"
)

const bannerSource = "products"

// ErrDeleteFailed is returned when a product could be removed neither remotely nor locally.
var ErrDeleteFailed = errors.New("product could not be deleted")

// CatalogService applies the fallback policy to product and category operations.
type CatalogService struct {
	repo     ports.CatalogRepository
	cache    ports.CatalogCache
	outbox   ports.Outbox
	notifier ports.ConnectivityNotifier
	now      func() time.Time
	logger   *zap.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo ports.CatalogRepository, catalogCache ports.CatalogCache, ob ports.Outbox, notifier ports.ConnectivityNotifier) *CatalogService {
	return &CatalogService{
		repo:     repo,
		cache:    catalogCache,
		outbox:   ob,
		notifier: notifier,
		now:      time.Now,
		logger:   logger.Named("products"),
	}
}

// ListProducts returns the catalog. Hidden products are only included for admins.
func (s *CatalogService) ListProducts(ctx context.Context, includeHidden bool) (domain.ProductList, error) {
	products, err := s.repo.ListProducts(ctx)
	offline := false

	switch {
	case err == nil && len(products) > 0:
		if cerr := s.cache.PutProducts(ctx, products); cerr != nil {
			s.logger.Warn("Failed to refresh product cache", zap.Error(cerr))
		}
		s.markOnline(ctx)
	default:
		if err != nil {
			s.logger.Warn("Product store unreachable, serving cached catalog", zap.Error(err))
			s.markOffline(ctx)
		}
		cached, cerr := s.cache.FindProducts(ctx)
		if cerr == nil {
			products, offline = cached, true
		} else {
			if !errors.Is(cerr, cache.ErrNotFound) {
				s.logger.Warn("Failed to read product cache", zap.Error(cerr))
			}
			products, offline = []domain.Product{}, err != nil
		}
	}

	if !includeHidden {
		products = visibleOnly(products)
	}
	return domain.ProductList{Products: products, Offline: offline}, nil
}

// GetProduct returns a single product.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.ProductResult, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err == nil {
		return domain.ProductResult{Product: p}, nil
	}

	notFound := errors.Is(err, domain.ErrProductNotFound)
	if !notFound {
		s.markOffline(ctx)
	}
	if cached, ok := s.findCached(ctx, id); ok {
		return domain.ProductResult{Product: cached, Offline: true}, nil
	}
	if notFound {
		return domain.ProductResult{}, domain.ErrProductNotFound
	}
	return domain.ProductResult{}, fmt.Errorf("failed to get product %s: %w", id, err)
}

// CreateProduct adds a product to the catalog.
func (s *CatalogService) CreateProduct(ctx context.Context, in domain.ProductInput) (domain.ProductResult, error) {
	p, err := domain.NewProduct(in, s.now())
	if err != nil {
		return domain.ProductResult{}, err
	}

	id, err := s.repo.CreateProduct(ctx, p)
	if err == nil {
		p.ID = id
		s.logger.Info("Product created", zap.String("product_id", id), zap.String("name", p.Name))
		return domain.ProductResult{Product: p}, nil
	}
	if !store.IsUnavailable(err) {
		return domain.ProductResult{}, err
	}

	p.ID = outbox.NewOfflineID()
	if err := s.queue(ctx, outbox.OpSet, domain.ProductPath(p.ID), p.Record(), err); err != nil {
		return domain.ProductResult{}, err
	}
	s.applyCached(ctx, func(products []domain.Product) []domain.Product {
		return append(products, p)
	})
	return domain.ProductResult{Product: p, Offline: true}, nil
}

// UpdateProduct changes the given product fields.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in domain.ProductInput) (domain.ProductResult, error) {
	patch, err := in.Patch(s.now())
	if err != nil {
		return domain.ProductResult{}, err
	}

	current, err := s.GetProduct(ctx, id)
	if err != nil {
		return domain.ProductResult{}, err
	}
	updated := domain.ApplyPatch(current.Product, patch)

	err = s.repo.UpdateProduct(ctx, id, patch)
	if err == nil {
		return domain.ProductResult{Product: updated}, nil
	}
	if !store.IsUnavailable(err) {
		return domain.ProductResult{}, err
	}

	if err := s.queue(ctx, outbox.OpUpdate, domain.ProductPath(id), patch, err); err != nil {
		return domain.ProductResult{}, err
	}
	s.applyCached(ctx, func(products []domain.Product) []domain.Product {
		for i := range products {
			if products[i].ID == id {
				products[i] = updated
			}
		}
		return products
	})
	return domain.ProductResult{Product: updated, Offline: true}, nil
}

// SetVisibility shows or hides a product from customers.
func (s *CatalogService) SetVisibility(ctx context.Context, id string, visible bool) (domain.ProductResult, error) {
	return s.UpdateProduct(ctx, id, domain.ProductInput{IsVisible: &visible})
}

// DeleteProduct removes a product. When the store is unreachable the product is
// removed from the cached catalog and the removal is queued. It fails only when
// neither the store nor the cache could be changed.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) (bool, error) {
	err := s.repo.DeleteProduct(ctx, id)
	if err == nil {
		s.logger.Info("Product deleted", zap.String("product_id", id))
		s.applyCached(ctx, func(products []domain.Product) []domain.Product {
			return without(products, id)
		})
		return false, nil
	}
	if !store.IsUnavailable(err) {
		return false, err
	}

	cached, cerr := s.cache.FindProducts(ctx)
	if cerr == nil {
		cerr = s.cache.PutProducts(ctx, without(cached, id))
	}
	if cerr != nil && !errors.Is(cerr, cache.ErrNotFound) {
		return false, fmt.Errorf("%w: %w", ErrDeleteFailed, errors.Join(err, cerr))
	}

	if err := s.queue(ctx, outbox.OpRemove, domain.ProductPath(id), nil, err); err != nil {
		return false, fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}
	return true, nil
}

// ListCategories returns every category.
func (s *CatalogService) ListCategories(ctx context.Context) (domain.CategoryList, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err == nil && len(categories) > 0 {
		if cerr := s.cache.PutCategories(ctx, categories); cerr != nil {
			s.logger.Warn("Failed to refresh category cache", zap.Error(cerr))
		}
		return domain.CategoryList{Categories: categories}, nil
	}

	if err != nil {
		s.logger.Warn("Category store unreachable, serving cached categories", zap.Error(err))
		s.markOffline(ctx)
	}
	cached, cerr := s.cache.FindCategories(ctx)
	if cerr != nil {
		return domain.CategoryList{Categories: []domain.Category{}, Offline: err != nil}, nil
	}
	return domain.CategoryList{Categories: cached, Offline: true}, nil
}

// CreateCategory adds a category.
func (s *CatalogService) CreateCategory(ctx context.Context, name, image string) (domain.CategoryResult, error) {
	c, err := domain.NewCategory(name, image, s.now())
	if err != nil {
		return domain.CategoryResult{}, err
	}

	id, err := s.repo.CreateCategory(ctx, c)
	if err == nil {
		c.ID = id
		return domain.CategoryResult{Category: c}, nil
	}
	if !store.IsUnavailable(err) {
		return domain.CategoryResult{}, err
	}

	c.ID = outbox.NewOfflineID()
	if err := s.queue(ctx, outbox.OpSet, domain.CategoryPath(c.ID), c.Record(), err); err != nil {
		return domain.CategoryResult{}, err
	}
	cached, _ := s.cache.FindCategories(ctx)
	if err := s.cache.PutCategories(ctx, append(cached, c)); err != nil {
		s.logger.Warn("Failed to update category cache", zap.Error(err))
	}
	return domain.CategoryResult{Category: c, Offline: true}, nil
}

// WarmCache streams the catalog into the local cache until ctx is done.
func (s *CatalogService) WarmCache(ctx context.Context) error {
	return s.repo.WatchProducts(ctx, func(products []domain.Product) {
		if err := s.cache.PutProducts(ctx, products); err != nil {
			s.logger.Warn("Failed to refresh product cache", zap.Error(err))
			return
		}
		s.markOnline(ctx)
	})
}

// queue records a write for replay after the store failed with cause.
func (s *CatalogService) queue(ctx context.Context, op outbox.Op, path string, value any, cause error) error {
	entry, err := outbox.NewEntry(op, path, value)
	if err != nil {
		return err
	}
	if err := s.outbox.Enqueue(ctx, entry); err != nil {
		return fmt.Errorf("write could not be saved online or offline: %w", errors.Join(cause, err))
	}
	s.markOffline(ctx)
	s.logger.Info("Catalog write saved offline", zap.String("op", string(op)), zap.String("path", path), zap.Error(cause))
	return nil
}

func (s *CatalogService) findCached(ctx context.Context, id string) (domain.Product, bool) {
	cached, err := s.cache.FindProducts(ctx)
	if err != nil {
		return domain.Product{}, false
	}
	for _, p := range cached {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (s *CatalogService) applyCached(ctx context.Context, change func([]domain.Product) []domain.Product) {
	cached, err := s.cache.FindProducts(ctx)
	if err != nil && !errors.Is(err, cache.ErrNotFound) {
		s.logger.Warn("Failed to read product cache", zap.Error(err))
		return
	}
	products := change(cached)
	domain.SortByName(products)
	if err := s.cache.PutProducts(ctx, products); err != nil {
		s.logger.Warn("Failed to update product cache", zap.Error(err))
	}
}

func (s *CatalogService) markOffline(ctx context.Context) {
	if err := s.notifier.MarkOffline(ctx, bannerSource); err != nil {
		s.logger.Warn("Failed to raise offline banner", zap.Error(err))
	}
}

func (s *CatalogService) markOnline(ctx context.Context) {
	if err := s.notifier.MarkOnline(ctx); err != nil {
		s.logger.Warn("Failed to clear offline banner", zap.Error(err))
	}
}

func visibleOnly(products []domain.Product) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.IsVisible {
			out = append(out, p)
		}
	}
	return out
}

func without(products []domain.Product, id string) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
