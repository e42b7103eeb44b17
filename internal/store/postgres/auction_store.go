package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// AuctionStore implements domain.AuctionStore using PostgreSQL.
type AuctionStore struct {
	db DBTX
}

// NewAuctionStore creates a new AuctionStore backed by the given querier.
func NewAuctionStore(db DBTX) *AuctionStore {
	return &AuctionStore{db: db}
}

const auctionCols = `card_id, seller, starting_price, current_bid, current_bidder,
	end_time, created_at`

// Create inserts an auction. The card_id primary key rejects a second
// concurrent auction for the same card.
func (s *AuctionStore) Create(ctx context.Context, a domain.Auction) error {
	const query = `
		INSERT INTO auctions (
			card_id, seller, starting_price, current_bid, current_bidder,
			end_time, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.Exec(ctx, query,
		a.CardID, a.Seller, int64(a.StartingPrice),
		priceArg(a.CurrentBid), a.CurrentBidder,
		a.EndTime, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create auction for card %s: %w", a.CardID, err)
	}
	return nil
}

// UpdateBid records a new standing bid and bidder.
func (s *AuctionStore) UpdateBid(ctx context.Context, cardID string, bid uint64, bidder string) error {
	const query = `
		UPDATE auctions SET current_bid = $2, current_bidder = $3
		WHERE card_id = $1`

	tag, err := s.db.Exec(ctx, query, cardID, int64(bid), bidder)
	if err != nil {
		return fmt.Errorf("postgres: update bid for card %s: %w", cardID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanAuction(row pgx.Row) (domain.Auction, error) {
	var a domain.Auction
	var starting int64
	var bid *int64

	err := row.Scan(
		&a.CardID, &a.Seller, &starting, &bid, &a.CurrentBidder,
		&a.EndTime, &a.CreatedAt,
	)
	if err != nil {
		return domain.Auction{}, err
	}

	a.StartingPrice = uint64(starting)
	if bid != nil {
		v := uint64(*bid)
		a.CurrentBid = &v
	}
	return a, nil
}

// GetByCard retrieves the active auction for a card.
func (s *AuctionStore) GetByCard(ctx context.Context, cardID string) (domain.Auction, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+auctionCols+` FROM auctions WHERE card_id = $1`, cardID)
	a, err := scanAuction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Auction{}, domain.ErrNotFound
		}
		return domain.Auction{}, fmt.Errorf("postgres: get auction for card %s: %w", cardID, err)
	}
	return a, nil
}

// Delete removes the auction for a card after settlement or close.
func (s *AuctionStore) Delete(ctx context.Context, cardID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM auctions WHERE card_id = $1`, cardID)
	if err != nil {
		return fmt.Errorf("postgres: delete auction for card %s: %w", cardID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListActive returns auctions whose bidding window is still open, soonest
// to end first.
func (s *AuctionStore) ListActive(ctx context.Context, opts domain.ListOpts) ([]domain.Auction, error) {
	query := `SELECT ` + auctionCols + ` FROM auctions WHERE end_time > NOW() ORDER BY end_time ASC`
	args := []any{}
	argIdx := 1

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	return s.queryAuctions(ctx, query, args, "list active auctions")
}

// ListEnded returns auctions whose window closed at or before now. The
// worker scans these to settle or close them.
func (s *AuctionStore) ListEnded(ctx context.Context, now time.Time, limit int) ([]domain.Auction, error) {
	query := `SELECT ` + auctionCols + ` FROM auctions WHERE end_time <= $1 ORDER BY end_time ASC LIMIT $2`
	return s.queryAuctions(ctx, query, []any{now, limit}, "list ended auctions")
}

func (s *AuctionStore) queryAuctions(ctx context.Context, query string, args []any, op string) ([]domain.Auction, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", op, err)
	}
	defer rows.Close()

	var auctions []domain.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: %s scan: %w", op, err)
		}
		auctions = append(auctions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: %s rows: %w", op, err)
	}
	return auctions, nil
}
