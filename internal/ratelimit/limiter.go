package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call for a key.
type Decision struct {
	Allowed    bool
	Count      int
	RetryAfter time.Duration
}

// Limiter is a fixed-window counter per key.
type Limiter interface {
	Allow(ctx context.Context, key string) Decision
}

// Disabled never limits.
type Disabled struct{}

func (Disabled) Allow(context.Context, string) Decision {
	return Decision{Allowed: true}
}
