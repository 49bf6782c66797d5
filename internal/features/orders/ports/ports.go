package ports

import (
	"context"
	"errors"

	"fruit-fusion/internal/core/messaging"
	"fruit-fusion/internal/core/outbox"
	"fruit-fusion/internal/features/orders/domain"
)

// ErrOrderNotFound is returned when no order exists for an id.
var ErrOrderNotFound = errors.New("order not found")

// OrderService defines the primary port for order operations.
type OrderService interface {
	ListOrders(ctx context.Context, userID string) (domain.OrderList, error)
	GetOrder(ctx context.Context, id string) (domain.OrderResult, error)
	PlaceOrder(ctx context.Context, raw domain.RawOrder) (domain.OrderResult, error)
	UpdateStatus(ctx context.Context, id, status string) (domain.OrderResult, error)
}

// OrderRepository reads and writes raw order records in the hosted store.
// Records are returned as stored, with the store key injected as "id".
type OrderRepository interface {
	List(ctx context.Context) ([]domain.RawOrder, error)
	ListByUser(ctx context.Context, userID string) ([]domain.RawOrder, error)
	Get(ctx context.Context, id string) (domain.RawOrder, error)
	Create(ctx context.Context, order domain.RawOrder) (string, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, updatedAt string) error
	// Watch calls onChange with the full order set on every remote change until ctx is done.
	Watch(ctx context.Context, onChange func([]domain.RawOrder)) error
}

// OrderCache keeps the last known normalized order lists for offline reads.
type OrderCache interface {
	Put(ctx context.Context, key string, orders []domain.Order) error
	Find(ctx context.Context, key string) ([]domain.Order, error)
}

// Outbox queues writes that could not reach the hosted store.
type Outbox interface {
	Enqueue(ctx context.Context, e outbox.Entry) error
	Pending(ctx context.Context) (int64, error)
}

// EventPublisher announces order lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, event messaging.Event) error
}

// ConnectivityNotifier raises and clears the offline notice.
type ConnectivityNotifier interface {
	MarkOffline(ctx context.Context, source string) error
	MarkOnline(ctx context.Context) error
}
