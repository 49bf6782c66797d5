package ports

import (
	"context"

	"fruit-fusion/internal/core/outbox"
	"fruit-fusion/internal/features/products/domain"
)

// CatalogService defines the primary port for product and category operations.
type CatalogService interface {
	ListProducts(ctx context.Context, includeHidden bool) (domain.ProductList, error)
	GetProduct(ctx context.Context, id string) (domain.ProductResult, error)
	CreateProduct(ctx context.Context, in domain.ProductInput) (domain.ProductResult, error)
	UpdateProduct(ctx context.Context, id string, in domain.ProductInput) (domain.ProductResult, error)
	SetVisibility(ctx context.Context, id string, visible bool) (domain.ProductResult, error)
	DeleteProduct(ctx context.Context, id string) (offline bool, err error)
	ListCategories(ctx context.Context) (domain.CategoryList, error)
	CreateCategory(ctx context.Context, name, image string) (domain.CategoryResult, error)
}

// CatalogRepository reads and writes catalog records in the hosted store.
type CatalogRepository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	CreateProduct(ctx context.Context, p domain.Product) (string, error)
	UpdateProduct(ctx context.Context, id string, patch map[string]any) error
	DeleteProduct(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, c domain.Category) (string, error)
	// WatchProducts calls onChange with the full catalog on every remote change until ctx is done.
	WatchProducts(ctx context.Context, onChange func([]domain.Product)) error
}

// CatalogCache keeps the last known catalog for offline reads.
type CatalogCache interface {
	PutProducts(ctx context.Context, products []domain.Product) error
	FindProducts(ctx context.Context) ([]domain.Product, error)
	PutCategories(ctx context.Context, categories []domain.Category) error
	FindCategories(ctx context.Context) ([]domain.Category, error)
}

// Outbox queues writes that could not reach the hosted store.
type Outbox interface {
	Enqueue(ctx context.Context, e outbox.Entry) error
}

// ConnectivityNotifier raises and clears the offline notice.
type ConnectivityNotifier interface {
	MarkOffline(ctx context.Context, source string) error
	MarkOnline(ctx context.Context) error
}
