package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"fruit-fusion/internal/core/cache"
	"fruit-fusion/internal/core/logger"
	"fruit-fusion/internal/core/messaging"
	"fruit-fusion/internal/core/outbox"
	"fruit-fusion/internal/core/store"
	"fruit-fusion/internal/features/orders/domain"
	"fruit-fusion/internal/features/orders/ports"

	"go.uber.org/zap"
)

const bannerSource = "orders"

// OrderService applies the fallback policy to order reads and writes: the hosted
// store first, the local cache and outbox when it cannot be reached.
type OrderService struct {
	repo       ports.OrderRepository
	cache      ports.OrderCache
	outbox     ports.Outbox
	publisher  ports.EventPublisher
	notifier   ports.ConnectivityNotifier
	normalizer *domain.Normalizer
	rules      domain.CheckoutRules
	now        func() time.Time
	logger     *zap.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	repo ports.OrderRepository,
	orderCache ports.OrderCache,
	ob ports.Outbox,
	publisher ports.EventPublisher,
	notifier ports.ConnectivityNotifier,
	rules domain.CheckoutRules,
) *OrderService {
	return &OrderService{
		repo:       repo,
		cache:      orderCache,
		outbox:     ob,
		publisher:  publisher,
		notifier:   notifier,
		normalizer: domain.NewNormalizer(time.Now),
		rules:      rules,
		now:        time.Now,
		logger:     logger.Named("orders"),
	}
}

// ListOrders returns every order, or only userID's when it is set, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string) (domain.OrderList, error) {
	var (
		raws []domain.RawOrder
		err  error
		key  = domain.AllOrdersKey
	)
	if userID != "" {
		key = domain.UserOrdersKey(userID)
		raws, err = s.repo.ListByUser(ctx, userID)
	} else {
		raws, err = s.repo.List(ctx)
	}

	if err == nil && len(raws) > 0 {
		orders := s.normalizeAll(raws)
		if cerr := s.cache.Put(ctx, key, orders); cerr != nil {
			s.logger.Warn("Failed to refresh order cache", zap.String("key", key), zap.Error(cerr))
		}
		s.markOnline(ctx)
		return domain.OrderList{Orders: orders}, nil
	}

	if err != nil {
		s.logger.Warn("Order store unreachable, serving cached orders", zap.String("key", key), zap.Error(err))
		s.markOffline(ctx)
	}

	cached, cerr := s.cache.Find(ctx, key)
	if cerr != nil {
		if !errors.Is(cerr, cache.ErrNotFound) {
			s.logger.Warn("Failed to read order cache", zap.String("key", key), zap.Error(cerr))
		}
		return domain.OrderList{Orders: []domain.Order{}, Offline: err != nil}, nil
	}
	return domain.OrderList{Orders: cached, Offline: true}, nil
}

// GetOrder returns a single order.
func (s *OrderService) GetOrder(ctx context.Context, id string) (domain.OrderResult, error) {
	raw, err := s.repo.Get(ctx, id)
	if err == nil {
		return domain.OrderResult{Order: s.normalizer.Normalize(raw)}, nil
	}

	notFound := errors.Is(err, ports.ErrOrderNotFound)
	if !notFound {
		s.logger.Warn("Order store unreachable, looking up cached order", zap.String("order_id", id), zap.Error(err))
		s.markOffline(ctx)
	}

	if order, ok := s.findCached(ctx, id); ok {
		return domain.OrderResult{Order: order, Offline: true}, nil
	}
	if notFound {
		return domain.OrderResult{}, ports.ErrOrderNotFound
	}
	return domain.OrderResult{}, fmt.Errorf("failed to get order %s: %w", id, err)
}

// PlaceOrder validates a checkout and stores the resulting order. When the store is
// unreachable the order gets an offline id and is queued for replay.
func (s *OrderService) PlaceOrder(ctx context.Context, raw domain.RawOrder) (domain.OrderResult, error) {
	if err := domain.ValidateCheckout(raw, s.rules); err != nil {
		return domain.OrderResult{}, err
	}

	stamp := s.timestamp()
	input := make(domain.RawOrder, len(raw)+4)
	for k, v := range raw {
		input[k] = v
	}
	delete(input, "id")
	input["status"] = string(domain.OrderStatusTaken)
	input["paymentMethod"] = domain.PaymentCashOnDelivery
	input["createdAt"] = stamp
	input["updatedAt"] = stamp

	order := s.normalizer.Normalize(input)
	record, err := storedRecord(order)
	if err != nil {
		return domain.OrderResult{}, err
	}

	id, err := s.repo.Create(ctx, record)
	if err == nil {
		order.ID = id
		s.logger.Info("Order placed", zap.String("order_id", id), zap.Float64("total", order.TotalAmount))
		s.publish(ctx, messaging.NewEvent(messaging.OrderPlacedEvent, id, order))
		return domain.OrderResult{Order: order}, nil
	}
	if !store.IsUnavailable(err) {
		return domain.OrderResult{}, err
	}

	order.ID = outbox.NewOfflineID()
	entry, eerr := outbox.NewEntry(outbox.OpSet, domain.OrderPath(order.ID), record)
	if eerr != nil {
		return domain.OrderResult{}, eerr
	}
	if eerr := s.outbox.Enqueue(ctx, entry); eerr != nil {
		return domain.OrderResult{}, fmt.Errorf("order could not be saved online or offline: %w", errors.Join(err, eerr))
	}

	s.markOffline(ctx)
	s.applyCached(ctx, order.UserID, func(orders []domain.Order) []domain.Order {
		return append([]domain.Order{order}, orders...)
	})
	s.logger.Info("Order saved offline", zap.String("order_id", order.ID), zap.Error(err))
	return domain.OrderResult{Order: order, Offline: true}, nil
}

// UpdateStatus moves an order to a new status.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (domain.OrderResult, error) {
	next, ok := domain.ParseStatus(status)
	if !ok {
		return domain.OrderResult{}, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	current, err := s.GetOrder(ctx, id)
	if err != nil {
		return domain.OrderResult{}, err
	}

	previous := current.Order.Status
	updated := current.Order
	updated.Status = next
	updated.UpdatedAt = s.timestamp()

	if !s.mustQueue(ctx, id) {
		err = s.repo.UpdateStatus(ctx, id, next, updated.UpdatedAt)
		if err == nil {
			s.logger.Info("Order status updated",
				zap.String("order_id", id),
				zap.String("from", string(previous)),
				zap.String("to", string(next)),
			)
			s.publish(ctx, messaging.NewEvent(messaging.OrderStatusChangedEvent, id, messaging.StatusChangedPayload{
				From: string(previous),
				To:   string(next),
			}))
			return domain.OrderResult{Order: updated}, nil
		}
		if !store.IsUnavailable(err) {
			return domain.OrderResult{}, err
		}
		s.markOffline(ctx)
	}

	entry, eerr := outbox.NewEntry(outbox.OpUpdate, domain.OrderPath(id), domain.StatusPatch(next, updated.UpdatedAt))
	if eerr != nil {
		return domain.OrderResult{}, eerr
	}
	if eerr := s.outbox.Enqueue(ctx, entry); eerr != nil {
		return domain.OrderResult{}, fmt.Errorf("status could not be saved online or offline: %w", errors.Join(err, eerr))
	}

	s.applyCached(ctx, updated.UserID, func(orders []domain.Order) []domain.Order {
		for i := range orders {
			if orders[i].ID == id {
				orders[i] = updated
			}
		}
		return orders
	})
	s.logger.Info("Order status saved offline", zap.String("order_id", id), zap.String("to", string(next)))
	return domain.OrderResult{Order: updated, Offline: true}, nil
}

// WarmCache streams the orders collection into the local cache until ctx is done.
// Orders placed offline and not replayed yet stay in the cached lists.
func (s *OrderService) WarmCache(ctx context.Context) error {
	return s.repo.Watch(ctx, func(raws []domain.RawOrder) {
		orders := s.withUnsynced(ctx, s.normalizeAll(raws))
		if err := s.cache.Put(ctx, domain.AllOrdersKey, orders); err != nil {
			s.logger.Warn("Failed to refresh order cache", zap.Error(err))
			return
		}

		byUser := map[string][]domain.Order{}
		for _, o := range orders {
			byUser[o.UserID] = append(byUser[o.UserID], o)
		}
		for userID, list := range byUser {
			if err := s.cache.Put(ctx, domain.UserOrdersKey(userID), list); err != nil {
				s.logger.Warn("Failed to refresh user order cache", zap.String("user_id", userID), zap.Error(err))
			}
		}
		s.markOnline(ctx)
	})
}

// withUnsynced adds the cached offline orders missing from a remote snapshot
// while the outbox still holds writes.
func (s *OrderService) withUnsynced(ctx context.Context, orders []domain.Order) []domain.Order {
	pending, err := s.outbox.Pending(ctx)
	if err == nil && pending == 0 {
		return orders
	}
	cached, cerr := s.cache.Find(ctx, domain.AllOrdersKey)
	if cerr != nil {
		return orders
	}

	remote := make(map[string]bool, len(orders))
	for _, o := range orders {
		remote[o.ID] = true
	}
	merged := orders
	for _, o := range cached {
		if outbox.IsOfflineID(o.ID) && !remote[o.ID] {
			merged = append(merged, o)
		}
	}
	if len(merged) > len(orders) {
		SortNewestFirst(merged)
	}
	return merged
}

// mustQueue reports whether a write to id has to go through the outbox to stay
// ordered behind the queued creation of that order.
func (s *OrderService) mustQueue(ctx context.Context, id string) bool {
	if !outbox.IsOfflineID(id) {
		return false
	}
	pending, err := s.outbox.Pending(ctx)
	return err != nil || pending > 0
}

func (s *OrderService) normalizeAll(raws []domain.RawOrder) []domain.Order {
	orders := make([]domain.Order, 0, len(raws))
	for _, raw := range raws {
		orders = append(orders, s.normalizer.Normalize(raw))
	}
	SortNewestFirst(orders)
	return orders
}

func (s *OrderService) findCached(ctx context.Context, id string) (domain.Order, bool) {
	cached, err := s.cache.Find(ctx, domain.AllOrdersKey)
	if err != nil {
		return domain.Order{}, false
	}
	for _, o := range cached {
		if o.ID == id {
			return o, true
		}
	}
	return domain.Order{}, false
}

// applyCached rewrites the cached admin list and the cached list of userID.
func (s *OrderService) applyCached(ctx context.Context, userID string, change func([]domain.Order) []domain.Order) {
	for _, key := range []string{domain.AllOrdersKey, domain.UserOrdersKey(userID)} {
		cached, err := s.cache.Find(ctx, key)
		if err != nil && !errors.Is(err, cache.ErrNotFound) {
			s.logger.Warn("Failed to read order cache", zap.String("key", key), zap.Error(err))
			continue
		}
		if err := s.cache.Put(ctx, key, change(cached)); err != nil {
			s.logger.Warn("Failed to update order cache", zap.String("key", key), zap.Error(err))
		}
	}
}

func (s *OrderService) publish(ctx context.Context, event messaging.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish order event",
			zap.String("event_type", string(event.Type)),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}

func (s *OrderService) markOffline(ctx context.Context) {
	if err := s.notifier.MarkOffline(ctx, bannerSource); err != nil {
		s.logger.Warn("Failed to raise offline banner", zap.Error(err))
	}
}

func (s *OrderService) markOnline(ctx context.Context) {
	if err := s.notifier.MarkOnline(ctx); err != nil {
		s.logger.Warn("Failed to clear offline banner", zap.Error(err))
	}
}

func (s *OrderService) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// storedRecord is the representation written to the store. The id is the record key.
func storedRecord(o domain.Order) (domain.RawOrder, error) {
	record, err := domain.ToRaw(o)
	if err != nil {
		return nil, err
	}
	delete(record, "id")
	return record, nil
}

// SortNewestFirst orders by creation time, newest first. Orders whose timestamp
// does not parse sort last.
func SortNewestFirst(orders []domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		ti, ei := time.Parse(time.RFC3339, orders[i].CreatedAt)
		tj, ej := time.Parse(time.RFC3339, orders[j].CreatedAt)
		switch {
		case ei != nil:
			return false
		case ej != nil:
			return true
		default:
			return ti.After(tj)
		}
	})
}
