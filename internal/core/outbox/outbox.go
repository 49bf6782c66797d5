package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"fruit-fusion/internal/core/cache"
	"fruit-fusion/internal/core/logger"
	"fruit-fusion/internal/core/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// queueKey is the cache list holding pending writes.
const queueKey = "outbox"

var errUnknownOp = errors.New("unknown outbox op")

// OfflineIDPrefix marks ids assigned to records created while the store was unreachable.
const OfflineIDPrefix = "offline-"

// NewOfflineID returns a record id for a create that will be replayed later.
func NewOfflineID() string {
	return OfflineIDPrefix + uuid.NewString()
}

// IsOfflineID reports whether id was assigned by NewOfflineID.
func IsOfflineID(id string) bool {
	return strings.HasPrefix(id, OfflineIDPrefix)
}

// Op is the store primitive a pending write replays with.
type Op string

const (
	OpSet    Op = "set"
	OpUpdate Op = "update"
	OpRemove Op = "remove"
)

// Entry is a write that could not reach the hosted store.
type Entry struct {
	ID        string          `json:"id"`
	Op        Op              `json:"op"`
	Path      string          `json:"path"`
	Value     json.RawMessage `json:"value,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewEntry builds an Entry with a fresh id, encoding value as JSON.
func NewEntry(op Op, path string, value any) (Entry, error) {
	e := Entry{
		ID:        uuid.NewString(),
		Op:        op,
		Path:      path,
		CreatedAt: time.Now().UTC(),
	}
	if value != nil {
		data, err := json.Marshal(value)
		if err != nil {
			return Entry{}, fmt.Errorf("failed to encode outbox value: %w", err)
		}
		e.Value = data
	}
	return e, nil
}

// requeueTimeout bounds putting a failed entry back when the replay context is gone.
const requeueTimeout = 5 * time.Second

// Outbox keeps pending writes in a FIFO list in the local cache and replays
// them against the hosted store once it is reachable again.
type Outbox struct {
	queue  cache.Queue
	db     store.Database
	logger *zap.Logger
	// replayMu keeps a single replay running so entries are applied in queue order.
	replayMu sync.Mutex
}

// New creates an Outbox on top of the given queue and store.
func New(queue cache.Queue, db store.Database) *Outbox {
	return &Outbox{
		queue:  queue,
		db:     db,
		logger: logger.Named("outbox"),
	}
}

// Enqueue appends a pending write.
func (o *Outbox) Enqueue(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode outbox entry: %w", err)
	}
	if err := o.queue.PushBack(ctx, queueKey, data); err != nil {
		return fmt.Errorf("failed to enqueue %s %s: %w", e.Op, e.Path, err)
	}
	o.logger.Info("Write queued for replay",
		zap.String("entry_id", e.ID),
		zap.String("op", string(e.Op)),
		zap.String("path", e.Path),
	)
	return nil
}

// Pending returns the number of writes waiting for replay.
func (o *Outbox) Pending(ctx context.Context) (int64, error) {
	return o.queue.Len(ctx, queueKey)
}

// Replay applies pending writes in order and returns how many were applied.
// It stops at the first write that fails for lack of connectivity, leaving it at
// the head of the queue. Writes the store rejects outright are dropped.
// Concurrent calls run one after the other.
func (o *Outbox) Replay(ctx context.Context) (int, error) {
	o.replayMu.Lock()
	defer o.replayMu.Unlock()

	if err := o.db.Ping(ctx); err != nil {
		return 0, fmt.Errorf("store not reachable, replay postponed: %w", err)
	}

	applied := 0
	for {
		data, err := o.queue.PopFront(ctx, queueKey)
		if errors.Is(err, cache.ErrNotFound) {
			break
		}
		if err != nil {
			return applied, err
		}

		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			o.logger.Error("Dropping unreadable outbox entry", zap.ByteString("entry", data), zap.Error(err))
			continue
		}

		err = o.apply(ctx, e)
		if errors.Is(err, store.ErrRejected) || errors.Is(err, errUnknownOp) {
			o.logger.Error("Dropping outbox entry the store will not accept",
				zap.String("entry_id", e.ID),
				zap.String("path", e.Path),
				zap.Error(err),
			)
			continue
		}
		if err != nil {
			o.requeue(ctx, e.ID, data)
			return applied, fmt.Errorf("replay of %s %s failed: %w", e.Op, e.Path, err)
		}

		applied++
		o.logger.Debug("Replayed outbox entry", zap.String("entry_id", e.ID), zap.String("path", e.Path))
	}

	if applied > 0 {
		o.logger.Info("Outbox replayed", zap.Int("applied", applied))
	}
	return applied, nil
}

// requeue puts a popped entry back at the head. It runs even when ctx is
// cancelled, since the entry exists nowhere else.
func (o *Outbox) requeue(ctx context.Context, id string, data []byte) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), requeueTimeout)
	defer cancel()

	if err := o.queue.PushFront(ctx, queueKey, data); err != nil {
		o.logger.Error("Failed to requeue outbox entry", zap.String("entry_id", id), zap.Error(err))
	}
}

func (o *Outbox) apply(ctx context.Context, e Entry) error {
	switch e.Op {
	case OpSet:
		return o.db.Set(ctx, e.Path, e.Value)
	case OpUpdate:
		return o.db.Update(ctx, e.Path, e.Value)
	case OpRemove:
		return o.db.Remove(ctx, e.Path)
	default:
		return fmt.Errorf("%w %q", errUnknownOp, e.Op)
	}
}

// Run replays the outbox every interval until ctx is cancelled.
func (o *Outbox) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := o.Replay(ctx); err != nil && ctx.Err() == nil {
				o.logger.Warn("Outbox replay incomplete", zap.Error(err))
			}
		}
	}
}
