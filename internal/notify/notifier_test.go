package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pookielabs/cardmarket/internal/domain"
)

type fakeSender struct {
	name string
	sent []Notification
	fail bool
}

func (f *fakeSender) Send(_ context.Context, n Notification) error {
	if f.fail {
		return errors.New("boom")
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeSender) Name() string { return f.name }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyFiltersEvents(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, []string{domain.EventSaleCompleted}, discard())

	err := n.Notify(context.Background(), Notification{Event: domain.EventCardMinted, Title: "minted"})
	require.NoError(t, err)
	assert.Empty(t, s.sent)

	err = n.Notify(context.Background(), Notification{Event: domain.EventSaleCompleted, Title: "sold"})
	require.NoError(t, err)
	require.Len(t, s.sent, 1)
	assert.Equal(t, "sold", s.sent[0].Title)
}

func TestNotifyEmptyFilterAllowsAll(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, nil, discard())

	require.NoError(t, n.Notify(context.Background(), Notification{Event: "anything"}))
	assert.Len(t, s.sent, 1)
}

func TestNotifyAllBypassesFilter(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, []string{domain.EventSaleCompleted}, discard())

	require.NoError(t, n.NotifyAll(context.Background(), Notification{Event: "other"}))
	assert.Len(t, s.sent, 1)
}

func TestDispatchContinuesPastFailingSender(t *testing.T) {
	bad := &fakeSender{name: "bad", fail: true}
	good := &fakeSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, discard())

	err := n.Notify(context.Background(), Notification{Event: "x", Title: "t"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Len(t, good.sent, 1)
}

func TestRenderSaleCompleted(t *testing.T) {
	note := render(domain.MarketEvent{
		Event:  domain.EventSaleCompleted,
		CardID: "card-1",
		Actor:  "0xbuyer",
		Price:  975,
	})
	assert.Equal(t, domain.EventSaleCompleted, note.Event)
	assert.Equal(t, "Card sold", note.Title)
	assert.Contains(t, note.Body, "card-1")
	assert.Contains(t, note.Body, "975")
}

func TestRenderUnknownEventFallsBack(t *testing.T) {
	note := render(domain.MarketEvent{Event: "mystery", CardID: "c", Actor: "a"})
	assert.Equal(t, "mystery", note.Title)
}
