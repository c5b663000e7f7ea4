// Package recovery finds lost audio recordings and drives them through
// the stability orchestrator.
package recovery

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/voxmend/voxmend/internal/infra/redisq"
)

// PendingAudio is one recording waiting for recovery.
type PendingAudio struct {
	Path    string
	ModTime time.Time
}

// Queue orders pending recordings oldest-first.
type Queue interface {
	Push(ctx context.Context, item PendingAudio) error
	Pop(ctx context.Context) (PendingAudio, bool, error)
	Len(ctx context.Context) (int, error)
}

// MemoryQueue is a process-local Queue for single-node setups and tests.
type MemoryQueue struct {
	mu    sync.Mutex
	items []PendingAudio
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) Push(ctx context.Context, item PendingAudio) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, existing := range q.items {
		if existing.Path == item.Path {
			return nil
		}
	}
	q.items = append(q.items, item)
	sort.Slice(q.items, func(i, j int) bool {
		return q.items[i].ModTime.Before(q.items[j].ModTime)
	})
	return nil
}

func (q *MemoryQueue) Pop(ctx context.Context) (PendingAudio, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return PendingAudio{}, false, nil
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true, nil
}

func (q *MemoryQueue) Len(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items), nil
}

// RedisQueue backs the queue with a Redis sorted set so pending work
// survives restarts and is shared across workers.
type RedisQueue struct {
	client *redisq.Client
}

func NewRedisQueue(client *redisq.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Push(ctx context.Context, item PendingAudio) error {
	return q.client.Push(ctx, item.Path, item.ModTime)
}

func (q *RedisQueue) Pop(ctx context.Context) (PendingAudio, bool, error) {
	path, ok, err := q.client.Pop(ctx)
	if err != nil || !ok {
		return PendingAudio{}, false, err
	}
	return PendingAudio{Path: path}, true, nil
}

func (q *RedisQueue) Len(ctx context.Context) (int, error) {
	n, err := q.client.Len(ctx)
	return int(n), err
}
