package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"fruit-fusion/internal/core/logger"
	"fruit-fusion/internal/core/store"
	"fruit-fusion/internal/features/orders/domain"
	"fruit-fusion/internal/features/orders/ports"

	"go.uber.org/zap"
)

// StoreOrderRepository implements ports.OrderRepository on the hosted store.
type StoreOrderRepository struct {
	db     store.Database
	logger *zap.Logger
}

// NewStoreOrderRepository creates a new StoreOrderRepository.
func NewStoreOrderRepository(db store.Database) *StoreOrderRepository {
	return &StoreOrderRepository{
		db:     db,
		logger: logger.Named("orders.store"),
	}
}

// List returns every order in the collection.
func (r *StoreOrderRepository) List(ctx context.Context) ([]domain.RawOrder, error) {
	var children map[string]json.RawMessage
	if err := r.db.Get(ctx, domain.OrdersPath, &children); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []domain.RawOrder{}, nil
		}
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return r.decodeChildren(children), nil
}

// ListByUser returns the orders placed by userID.
func (r *StoreOrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.RawOrder, error) {
	var children map[string]json.RawMessage
	if err := r.db.Query(ctx, domain.OrdersPath, "userId", userID, &children); err != nil {
		return nil, fmt.Errorf("failed to query orders for user %s: %w", userID, err)
	}
	return r.decodeChildren(children), nil
}

// Get returns a single order.
func (r *StoreOrderRepository) Get(ctx context.Context, id string) (domain.RawOrder, error) {
	var raw domain.RawOrder
	if err := r.db.Get(ctx, domain.OrderPath(id), &raw); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ports.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	if raw == nil {
		return nil, ports.ErrOrderNotFound
	}
	raw["id"] = id
	return raw, nil
}

// Create appends an order and returns the key the store assigned.
func (r *StoreOrderRepository) Create(ctx context.Context, order domain.RawOrder) (string, error) {
	record := make(domain.RawOrder, len(order))
	for k, v := range order {
		if k != "id" {
			record[k] = v
		}
	}

	id, err := r.db.Push(ctx, domain.OrdersPath, record)
	if err != nil {
		return "", fmt.Errorf("failed to create order: %w", err)
	}
	return id, nil
}

// UpdateStatus patches the status and update time of an order.
func (r *StoreOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, updatedAt string) error {
	patch := domain.StatusPatch(status, updatedAt)
	if err := r.db.Update(ctx, domain.OrderPath(id), patch); err != nil {
		return fmt.Errorf("failed to update order %s: %w", id, err)
	}
	return nil
}

// Watch streams the orders collection, calling onChange with the full set after each event.
func (r *StoreOrderRepository) Watch(ctx context.Context, onChange func([]domain.RawOrder)) error {
	snapshot := &store.Snapshot{}
	return r.db.Subscribe(ctx, domain.OrdersPath, func(ev store.Event) {
		if err := snapshot.Apply(ev); err != nil {
			r.logger.Warn("Ignoring unreadable order event", zap.String("path", ev.Path), zap.Error(err))
			return
		}
		onChange(r.decodeChildren(snapshot.Children()))
	})
}

// decodeChildren parses each child record, injecting its key as id. Records
// that are not JSON objects are skipped. Output is sorted by key.
func (r *StoreOrderRepository) decodeChildren(children map[string]json.RawMessage) []domain.RawOrder {
	keys := make([]string, 0, len(children))
	for k := range children {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	orders := make([]domain.RawOrder, 0, len(keys))
	for _, k := range keys {
		raw, err := domain.ParseRawOrder(children[k])
		if err != nil {
			r.logger.Warn("Skipping order record that is not an object", zap.String("order_id", k), zap.Error(err))
			continue
		}
		raw["id"] = k
		orders = append(orders, raw)
	}
	return orders
}
