package service

import (
	"context"
	"time"

	"github.com/pookielabs/cardmarket/internal/domain"
	"github.com/pookielabs/cardmarket/internal/escrow"
)

// settleSale applies the completion steps a purchase and an auction
// settlement share: escrow release to the buyer, card ownership and flag
// updates, marketplace totals, and the symmetric seller/buyer stat moves,
// finishing with the Sale record insert. Removing the listing or auction
// row stays with the caller. Runs inside the caller's transaction.
func settleSale(ctx context.Context, st domain.Stores, sale domain.Sale, sellerAmount uint64, now time.Time) error {
	if err := escrow.NewManager(st.Ledger).Out(ctx, sale.CardID, sale.Buyer); err != nil {
		return err
	}

	card, err := st.Cards.GetByID(ctx, sale.CardID)
	if err != nil {
		return err
	}
	card.Owner = sale.Buyer
	card.IsListed = false
	card.ListingPrice = nil
	card.LastUpdated = now
	if err := st.Cards.Update(ctx, card); err != nil {
		return err
	}

	if err := st.Marketplace.RecordSaleTotals(ctx, sale.Price); err != nil {
		return err
	}

	seller, err := st.UserStats.GetByOwner(ctx, sale.Seller)
	if err != nil {
		return err
	}
	if seller.CardsOwned == 0 {
		// Counter underflow means bookkeeping already diverged; fail the
		// sale rather than wrap.
		return domain.ErrInvalidAmount
	}
	seller.CardsOwned--
	seller.TotalEarned += sellerAmount
	seller.LastActivity = now
	if err := st.UserStats.Update(ctx, seller); err != nil {
		return err
	}

	buyer, err := st.UserStats.GetByOwner(ctx, sale.Buyer)
	if err != nil {
		return err
	}
	buyer.CardsOwned++
	buyer.TotalSpent += sale.Price
	buyer.LastActivity = now
	if err := st.UserStats.Update(ctx, buyer); err != nil {
		return err
	}

	return st.Sales.Insert(ctx, sale)
}
