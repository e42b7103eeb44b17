package escrow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pookielabs/cardmarket/internal/domain"
)

type memLedger struct {
	holders map[string]string
}

func newMemLedger() *memLedger {
	return &memLedger{holders: make(map[string]string)}
}

func (l *memLedger) CreateUnit(_ context.Context, tokenID, account string) error {
	if _, ok := l.holders[tokenID]; ok {
		return domain.ErrAlreadyExists
	}
	l.holders[tokenID] = account
	return nil
}

func (l *memLedger) Holder(_ context.Context, tokenID string) (string, error) {
	h, ok := l.holders[tokenID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return h, nil
}

func (l *memLedger) TransferUnit(_ context.Context, tokenID, from, to string) error {
	h, ok := l.holders[tokenID]
	if !ok {
		return domain.ErrNotFound
	}
	if h != from {
		return domain.ErrUnauthorized
	}
	l.holders[tokenID] = to
	return nil
}

func TestEscrowRoundTrip(t *testing.T) {
	ctx := context.Background()
	ledger := newMemLedger()
	require.NoError(t, ledger.CreateUnit(ctx, "card-1", "0xseller"))

	m := NewManager(ledger)
	card := domain.Card{ID: "card-1", Owner: "0xseller"}

	require.NoError(t, m.In(ctx, card))
	h, err := ledger.Holder(ctx, "card-1")
	require.NoError(t, err)
	assert.Equal(t, "escrow:card-1", h)

	require.NoError(t, m.Out(ctx, "card-1", "0xbuyer"))
	h, err = ledger.Holder(ctx, "card-1")
	require.NoError(t, err)
	assert.Equal(t, "0xbuyer", h)
}

func TestEscrowInRejectsListedCard(t *testing.T) {
	ctx := context.Background()
	m := NewManager(newMemLedger())
	card := domain.Card{ID: "card-1", Owner: "0xseller", IsListed: true}

	err := m.In(ctx, card)
	assert.ErrorIs(t, err, domain.ErrAlreadyListed)
}

func TestEscrowInRequiresOwnership(t *testing.T) {
	ctx := context.Background()
	ledger := newMemLedger()
	require.NoError(t, ledger.CreateUnit(ctx, "card-1", "0xother"))

	m := NewManager(ledger)
	err := m.In(ctx, domain.Card{ID: "card-1", Owner: "0xseller"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestEscrowOutOnlyFromCustody(t *testing.T) {
	ctx := context.Background()
	ledger := newMemLedger()
	require.NoError(t, ledger.CreateUnit(ctx, "card-1", "0xseller"))

	m := NewManager(ledger)
	err := m.Out(ctx, "card-1", "0xbuyer")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
