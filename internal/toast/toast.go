package toast

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Level of a toast.
type Level string

const (
	Success Level = "success"
	Error   Level = "error"
	Info    Level = "info"
)

// Toast is a transient notification shown to one session.
type Toast struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// New builds a toast stamped with a fresh id.
func New(level Level, message string) Toast {
	return Toast{ID: uuid.NewString(), Level: level, Message: message, CreatedAt: time.Now().UTC()}
}

// Queue holds pending toasts per session until the client drains them.
type Queue interface {
	Push(ctx context.Context, sessionID string, t Toast) error
	Drain(ctx context.Context, sessionID string) ([]Toast, error)
}

// DefaultLimit bounds the toasts kept per session; older ones are dropped.
const DefaultLimit = 20

// InMemory is a map-backed queue for dev/testing.
type InMemory struct {
	mu    sync.Mutex
	limit int
	items map[string][]Toast
}

// NewInMemory creates a queue keeping at most limit toasts per session.
func NewInMemory(limit int) *InMemory {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &InMemory{limit: limit, items: make(map[string][]Toast)}
}

// Push appends a toast, dropping the oldest when the session is full.
func (q *InMemory) Push(_ context.Context, sessionID string, t Toast) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	list := append(q.items[sessionID], t)
	if len(list) > q.limit {
		list = list[len(list)-q.limit:]
	}
	q.items[sessionID] = list
	return nil
}

// Drain returns and removes the pending toasts, oldest first.
func (q *InMemory) Drain(_ context.Context, sessionID string) ([]Toast, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items[sessionID]
	delete(q.items, sessionID)
	if out == nil {
		out = []Toast{}
	}
	return out, nil
}

// RedisQueue keeps one Redis list per session.
type RedisQueue struct {
	client *redis.Client
	prefix string
	limit  int
	ttl    time.Duration
}

// NewRedisQueue builds a queue under keys prefix+sessionID. Lists expire after
// ttl without activity.
func NewRedisQueue(client *redis.Client, prefix string, ttl time.Duration) *RedisQueue {
	if prefix == "" {
		prefix = "portal:toasts:"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisQueue{client: client, prefix: prefix, limit: DefaultLimit, ttl: ttl}
}

// Push appends with RPUSH and trims the list to the newest entries.
func (q *RedisQueue) Push(ctx context.Context, sessionID string, t Toast) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	key := q.prefix + sessionID
	pipe := q.client.TxPipeline()
	pipe.RPush(ctx, key, raw)
	pipe.LTrim(ctx, key, int64(-q.limit), -1)
	pipe.Expire(ctx, key, q.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Drain reads and deletes the list atomically.
func (q *RedisQueue) Drain(ctx context.Context, sessionID string) ([]Toast, error) {
	key := q.prefix + sessionID
	pipe := q.client.TxPipeline()
	rng := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	out := make([]Toast, 0, len(rng.Val()))
	for _, s := range rng.Val() {
		var t Toast
		if err := json.Unmarshal([]byte(s), &t); err == nil {
			out = append(out, t)
		}
	}
	return out, nil
}
