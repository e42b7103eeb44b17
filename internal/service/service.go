// Package service implements the marketplace operations: progression,
// fixed-price listings, auctions, card custody moves, account setup, and
// chest openings. Each mutating operation acquires the card's distributed
// lock and then runs inside one database transaction, which is the
// atomicity boundary for every multi-record update.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// Clock supplies the current time. Injected so tests can pin it.
type Clock func() time.Time

// cardLockTTL bounds how long a crashed operation can keep a card locked.
const cardLockTTL = 10 * time.Second

func cardLockKey(cardID string) string {
	return "lock:card:" + cardID
}

// publish sends a marketplace event on the bus. Fanout is best effort;
// failures are logged and never fail the completed operation.
func publish(ctx context.Context, bus domain.SignalBus, logger *slog.Logger, channel string, ev domain.MarketEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.WarnContext(ctx, "service: marshal event failed",
			slog.String("event", ev.Event),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := bus.Publish(ctx, channel, payload); err != nil {
		logger.WarnContext(ctx, "service: publish event failed",
			slog.String("event", ev.Event),
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
}
