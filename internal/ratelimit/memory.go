package ratelimit

import (
	"context"
	"sync"
	"time"
)

// expired buckets are swept once the map grows past this
const sweepThreshold = 10_000

type Memory struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	clients map[string]*clientBucket
	now     func() time.Time
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewMemory(limit int, window time.Duration) *Memory {
	if window <= 0 {
		window = time.Minute
	}

	return &Memory{
		limit:   limit,
		window:  window,
		clients: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

func (rl *Memory) Allow(_ context.Context, key string) Decision {
	if rl.limit <= 0 {
		return Decision{Allowed: true}
	}

	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.clients) > sweepThreshold {
		rl.sweep(now)
	}

	b, ok := rl.clients[key]

	if !ok || now.After(b.windowEnd) {
		rl.clients[key] = &clientBucket{
			count:     1,
			windowEnd: now.Add(rl.window),
		}
		return Decision{Allowed: true, Count: 1}
	}

	if b.count >= rl.limit {
		retryAfter := b.windowEnd.Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return Decision{Allowed: false, Count: b.count, RetryAfter: retryAfter}
	}

	b.count++
	return Decision{Allowed: true, Count: b.count}
}

func (rl *Memory) sweep(now time.Time) {
	for k, b := range rl.clients {
		if now.After(b.windowEnd) {
			delete(rl.clients, k)
		}
	}
}
