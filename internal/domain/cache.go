package domain

import (
	"context"
	"time"
)

// CardCache provides fast card lookups in front of the database.
type CardCache interface {
	Set(ctx context.Context, card Card) error
	Get(ctx context.Context, id string) (Card, error)
	Invalidate(ctx context.Context, id string) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string) error
}

// LockManager provides distributed locking. Mutating card operations take
// the card's lock before opening a transaction so concurrent buyers and
// bidders serialize on one card without blocking the rest.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus provides pub/sub fanout for marketplace events.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
