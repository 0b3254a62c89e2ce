package repository

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/hadirq/ledger-api/internal/models"
)

const queueKey = "ledger:notify:queue"

// Queue is a bounded FIFO of pending notification intents. When the queue is
// full the oldest intents are dropped so a gateway outage cannot grow memory
// without bound.
type Queue interface {
	Enqueue(ctx context.Context, intent models.NotificationIntent) error
	Drain(ctx context.Context) ([]models.NotificationIntent, error)
	Depth(ctx context.Context) (int, error)
}

// QueueRepository implements Queue on a Redis list, so queued intents survive
// process restarts.
type QueueRepository struct {
	client *redis.Client
	cap    int
}

// NewQueueRepository constructs a QueueRepository with the given capacity.
func NewQueueRepository(client *redis.Client, cap int) *QueueRepository {
	if cap <= 0 {
		cap = 50
	}
	return &QueueRepository{client: client, cap: cap}
}

// Enqueue appends the intent and trims the list to the newest cap entries.
func (r *QueueRepository) Enqueue(ctx context.Context, intent models.NotificationIntent) error {
	raw, err := json.Marshal(intent)
	if err != nil {
		return wrapInternal(err)
	}
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, queueKey, raw)
	pipe.LTrim(ctx, queueKey, int64(-r.cap), -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return wrapInternal(err)
	}
	return nil
}

// Drain atomically takes every queued intent in FIFO order and empties the
// queue. Entries that no longer decode are skipped.
func (r *QueueRepository) Drain(ctx context.Context) ([]models.NotificationIntent, error) {
	pipe := r.client.TxPipeline()
	rangeCmd := pipe.LRange(ctx, queueKey, 0, -1)
	pipe.Del(ctx, queueKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, wrapInternal(err)
	}
	raws := rangeCmd.Val()
	intents := make([]models.NotificationIntent, 0, len(raws))
	for _, raw := range raws {
		var intent models.NotificationIntent
		if err := json.Unmarshal([]byte(raw), &intent); err != nil {
			continue
		}
		intents = append(intents, intent)
	}
	return intents, nil
}

// Depth returns the number of queued intents.
func (r *QueueRepository) Depth(ctx context.Context) (int, error) {
	n, err := r.client.LLen(ctx, queueKey).Result()
	if err != nil {
		return 0, wrapInternal(err)
	}
	return int(n), nil
}

// MemoryQueue is an in-process Queue with the same bounded semantics.
type MemoryQueue struct {
	mu      sync.Mutex
	cap     int
	intents []models.NotificationIntent
}

// NewMemoryQueue constructs a MemoryQueue with the given capacity.
func NewMemoryQueue(cap int) *MemoryQueue {
	if cap <= 0 {
		cap = 50
	}
	return &MemoryQueue{cap: cap}
}

func (q *MemoryQueue) Enqueue(_ context.Context, intent models.NotificationIntent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.intents = append(q.intents, intent)
	if over := len(q.intents) - q.cap; over > 0 {
		q.intents = q.intents[over:]
	}
	return nil
}

func (q *MemoryQueue) Drain(_ context.Context) ([]models.NotificationIntent, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.intents
	q.intents = nil
	return out, nil
}

func (q *MemoryQueue) Depth(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.intents), nil
}
