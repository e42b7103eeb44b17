// Package escrow moves card tokens in and out of marketplace custody.
// A card enters escrow when it is listed or auctioned and leaves on
// purchase, settlement, or cancellation; while escrowed the seller cannot
// transfer it out from under a buyer.
package escrow

import (
	"context"
	"fmt"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// CustodyAccount returns the ledger account that holds a card's token while
// it is escrowed.
func CustodyAccount(cardID string) string {
	return "escrow:" + cardID
}

// Manager wraps a token ledger with the listing state checks both market
// flows share. It always runs inside the caller's transaction, so the
// custody move and the card flag flip commit or roll back together.
type Manager struct {
	ledger domain.TokenLedger
}

// NewManager creates a Manager over the given ledger.
func NewManager(ledger domain.TokenLedger) *Manager {
	return &Manager{ledger: ledger}
}

// In moves the card's token from the owner into custody. Fails with
// ErrAlreadyListed when the card is already escrowed.
func (m *Manager) In(ctx context.Context, card domain.Card) error {
	if card.IsListed {
		return domain.ErrAlreadyListed
	}
	if err := m.ledger.TransferUnit(ctx, card.ID, card.Owner, CustodyAccount(card.ID)); err != nil {
		return fmt.Errorf("escrow: take custody of card %s: %w", card.ID, err)
	}
	return nil
}

// Out releases the card's token from custody to the given account, either
// back to the seller on cancel or close, or to the buyer on settlement.
func (m *Manager) Out(ctx context.Context, cardID, to string) error {
	if err := m.ledger.TransferUnit(ctx, cardID, CustodyAccount(cardID), to); err != nil {
		return fmt.Errorf("escrow: release card %s: %w", cardID, err)
	}
	return nil
}
