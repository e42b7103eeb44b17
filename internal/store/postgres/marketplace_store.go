package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// MarketplaceStore implements domain.MarketplaceStore using PostgreSQL.
// The marketplace table holds exactly one row, pinned by a constant id.
type MarketplaceStore struct {
	db DBTX
}

// NewMarketplaceStore creates a new MarketplaceStore backed by the given querier.
func NewMarketplaceStore(db DBTX) *MarketplaceStore {
	return &MarketplaceStore{db: db}
}

// Init inserts the singleton marketplace row. A second call fails with
// ErrAlreadyExists.
func (s *MarketplaceStore) Init(ctx context.Context, m domain.Marketplace) error {
	const query = `
		INSERT INTO marketplace (id, authority, fee_bps, total_volume, total_sales, created_at)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`

	tag, err := s.db.Exec(ctx, query,
		m.Authority, int32(m.FeeBps), int64(m.TotalVolume), int64(m.TotalSales), m.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: init marketplace: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// Get retrieves the singleton marketplace row.
func (s *MarketplaceStore) Get(ctx context.Context) (domain.Marketplace, error) {
	row := s.db.QueryRow(ctx,
		`SELECT authority, fee_bps, total_volume, total_sales, created_at FROM marketplace WHERE id = 1`)

	var m domain.Marketplace
	var feeBps int32
	var volume, sales int64
	err := row.Scan(&m.Authority, &feeBps, &volume, &sales, &m.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Marketplace{}, domain.ErrNotFound
		}
		return domain.Marketplace{}, fmt.Errorf("postgres: get marketplace: %w", err)
	}

	m.FeeBps = uint16(feeBps)
	m.TotalVolume = uint64(volume)
	m.TotalSales = uint64(sales)
	return m, nil
}

// RecordSaleTotals bumps the running volume and sale counters.
func (s *MarketplaceStore) RecordSaleTotals(ctx context.Context, price uint64) error {
	const query = `
		UPDATE marketplace SET
			total_volume = total_volume + $1,
			total_sales  = total_sales + 1
		WHERE id = 1`

	tag, err := s.db.Exec(ctx, query, int64(price))
	if err != nil {
		return fmt.Errorf("postgres: record sale totals: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
