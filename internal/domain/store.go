package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// CardStore persists cards.
type CardStore interface {
	Create(ctx context.Context, card Card) error
	Update(ctx context.Context, card Card) error
	GetByID(ctx context.Context, id string) (Card, error)
	ListByOwner(ctx context.Context, owner string, opts ListOpts) ([]Card, error)
	ListListed(ctx context.Context, opts ListOpts) ([]Card, error)
	Count(ctx context.Context) (int64, error)
}

// UserStatsStore persists per-account progression stats.
type UserStatsStore interface {
	Create(ctx context.Context, stats UserStats) error
	Update(ctx context.Context, stats UserStats) error
	GetByOwner(ctx context.Context, owner string) (UserStats, error)
	ListTop(ctx context.Context, limit int) ([]UserStats, error)
}

// ListingStore persists fixed-price listings, keyed by card.
type ListingStore interface {
	Create(ctx context.Context, l Listing) error
	GetByCard(ctx context.Context, cardID string) (Listing, error)
	Delete(ctx context.Context, cardID string) error
	List(ctx context.Context, opts ListOpts) ([]Listing, error)
}

// AuctionStore persists auctions, keyed by card.
type AuctionStore interface {
	Create(ctx context.Context, a Auction) error
	UpdateBid(ctx context.Context, cardID string, bid uint64, bidder string) error
	GetByCard(ctx context.Context, cardID string) (Auction, error)
	Delete(ctx context.Context, cardID string) error
	ListActive(ctx context.Context, opts ListOpts) ([]Auction, error)
	ListEnded(ctx context.Context, now time.Time, limit int) ([]Auction, error)
}

// MarketplaceStore persists the singleton marketplace configuration.
type MarketplaceStore interface {
	Init(ctx context.Context, m Marketplace) error
	Get(ctx context.Context) (Marketplace, error)
	RecordSaleTotals(ctx context.Context, price uint64) error
}

// CollectionStore persists collections.
type CollectionStore interface {
	Create(ctx context.Context, c Collection) error
	GetByID(ctx context.Context, id string) (Collection, error)
	IncrementTotal(ctx context.Context, id string) error
	List(ctx context.Context, opts ListOpts) ([]Collection, error)
}

// SaleStore persists completed sales.
type SaleStore interface {
	Insert(ctx context.Context, s Sale) error
	ListByCard(ctx context.Context, cardID string, opts ListOpts) ([]Sale, error)
	ListRecent(ctx context.Context, limit int) ([]Sale, error)
	ListBefore(ctx context.Context, before time.Time, limit int) ([]Sale, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// ChestGrantStore persists chest opening records.
type ChestGrantStore interface {
	Insert(ctx context.Context, g ChestGrant) error
	ListByOwner(ctx context.Context, owner string, opts ListOpts) ([]ChestGrant, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
	ListBefore(ctx context.Context, before time.Time, limit int) ([]AuditEntry, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// Stores bundles every store so services can run a whole operation against
// a single transaction.
type Stores struct {
	Cards       CardStore
	UserStats   UserStatsStore
	Listings    ListingStore
	Auctions    AuctionStore
	Marketplace MarketplaceStore
	Collections CollectionStore
	Sales       SaleStore
	Chests      ChestGrantStore
	Audit       AuditStore
	Ledger      TokenLedger
}

// TxRunner executes fn inside a database transaction. The Stores passed to
// fn are bound to that transaction; any error rolls everything back.
type TxRunner interface {
	InTx(ctx context.Context, fn func(s Stores) error) error
}
