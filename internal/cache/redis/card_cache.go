package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pookielabs/cardmarket/internal/domain"
)

const cardTTL = 5 * time.Minute

// CardCache implements domain.CardCache with JSON-serialized cards under
// string keys.
//
// Key schema:
//
//	card:{id} - JSON-encoded domain.Card
type CardCache struct {
	rdb *redis.Client
}

// NewCardCache creates a CardCache backed by the given Client.
func NewCardCache(c *Client) *CardCache {
	return &CardCache{rdb: c.Underlying()}
}

func cardKey(id string) string { return "card:" + id }

// Set stores a card with a 5-minute TTL.
func (cc *CardCache) Set(ctx context.Context, card domain.Card) error {
	data, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("redis: marshal card %s: %w", card.ID, err)
	}
	if err := cc.rdb.Set(ctx, cardKey(card.ID), data, cardTTL).Err(); err != nil {
		return fmt.Errorf("redis: set card %s: %w", card.ID, err)
	}
	return nil
}

// Get retrieves a card by ID. Returns domain.ErrNotFound on a miss.
func (cc *CardCache) Get(ctx context.Context, id string) (domain.Card, error) {
	data, err := cc.rdb.Get(ctx, cardKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Card{}, domain.ErrNotFound
		}
		return domain.Card{}, fmt.Errorf("redis: get card %s: %w", id, err)
	}

	var card domain.Card
	if err := json.Unmarshal(data, &card); err != nil {
		return domain.Card{}, fmt.Errorf("redis: unmarshal card %s: %w", id, err)
	}
	return card, nil
}

// Invalidate removes a card from the cache.
func (cc *CardCache) Invalidate(ctx context.Context, id string) error {
	if err := cc.rdb.Del(ctx, cardKey(id)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate card %s: %w", id, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.CardCache = (*CardCache)(nil)
