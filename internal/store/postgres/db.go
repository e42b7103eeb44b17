package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// DBTX is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx.
// Every store runs against it, so the same store code serves plain calls
// and transactional ones.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewStores builds the full store bundle bound to db.
func NewStores(db DBTX) domain.Stores {
	return domain.Stores{
		Cards:       NewCardStore(db),
		UserStats:   NewUserStatsStore(db),
		Listings:    NewListingStore(db),
		Auctions:    NewAuctionStore(db),
		Marketplace: NewMarketplaceStore(db),
		Collections: NewCollectionStore(db),
		Sales:       NewSaleStore(db),
		Chests:      NewChestGrantStore(db),
		Audit:       NewAuditStore(db),
		Ledger:      NewTokenLedger(db),
	}
}
