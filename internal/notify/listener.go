package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// Listener subscribes to the signal bus and forwards marketplace events to
// a Notifier. It is the glue between the event fanout and the operator
// alert channels.
type Listener struct {
	bus      domain.SignalBus
	notifier *Notifier
	logger   *slog.Logger
}

// NewListener creates a Listener over the given bus and notifier.
func NewListener(bus domain.SignalBus, notifier *Notifier, logger *slog.Logger) *Listener {
	return &Listener{
		bus:      bus,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "notify_listener")),
	}
}

// Run subscribes to all marketplace channels and forwards events until ctx
// is canceled. Malformed payloads and delivery failures are logged and
// skipped so one bad event never stalls the stream.
func (l *Listener) Run(ctx context.Context) error {
	channels := []string{domain.ChannelMarket, domain.ChannelAuction, domain.ChannelCards}

	merged := make(chan []byte, 64)
	for _, ch := range channels {
		payloads, err := l.bus.Subscribe(ctx, ch)
		if err != nil {
			return fmt.Errorf("notify: subscribing to %s: %w", ch, err)
		}
		go func() {
			for p := range payloads {
				select {
				case merged <- p:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	l.logger.InfoContext(ctx, "listener started",
		slog.Int("channels", len(channels)),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload := <-merged:
			var ev domain.MarketEvent
			if err := json.Unmarshal(payload, &ev); err != nil {
				l.logger.WarnContext(ctx, "malformed event payload",
					slog.String("error", err.Error()),
				)
				continue
			}
			if err := l.notifier.Notify(ctx, render(ev)); err != nil {
				l.logger.WarnContext(ctx, "notification delivery failed",
					slog.String("event", ev.Event),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// render turns a marketplace event into a human-readable notification.
func render(ev domain.MarketEvent) Notification {
	var title, body string
	switch ev.Event {
	case domain.EventSaleCompleted:
		title = "Card sold"
		body = fmt.Sprintf("Card %s sold to %s for %d", ev.CardID, ev.Actor, ev.Price)
	case domain.EventAuctionSettled:
		title = "Auction settled"
		body = fmt.Sprintf("Card %s won by %s at %d", ev.CardID, ev.Actor, ev.Price)
	case domain.EventAuctionClosed:
		title = "Auction closed"
		body = fmt.Sprintf("Auction for card %s closed with no bids", ev.CardID)
	case domain.EventCardMinted:
		title = "Card minted"
		body = fmt.Sprintf("Card %s minted by %s", ev.CardID, ev.Actor)
	case domain.EventBidPlaced:
		title = "Bid placed"
		body = fmt.Sprintf("%s bid %d on card %s", ev.Actor, ev.Price, ev.CardID)
	default:
		title = ev.Event
		body = fmt.Sprintf("Card %s, actor %s", ev.CardID, ev.Actor)
	}
	return Notification{Event: ev.Event, Title: title, Body: body}
}
