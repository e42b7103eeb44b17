package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// ListingStore implements domain.ListingStore using PostgreSQL.
type ListingStore struct {
	db DBTX
}

// NewListingStore creates a new ListingStore backed by the given querier.
func NewListingStore(db DBTX) *ListingStore {
	return &ListingStore{db: db}
}

// Create inserts a listing. The card_id primary key rejects a second
// concurrent listing for the same card.
func (s *ListingStore) Create(ctx context.Context, l domain.Listing) error {
	const query = `
		INSERT INTO listings (card_id, seller, price, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := s.db.Exec(ctx, query, l.CardID, l.Seller, int64(l.Price), l.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create listing for card %s: %w", l.CardID, err)
	}
	return nil
}

func scanListing(row pgx.Row) (domain.Listing, error) {
	var l domain.Listing
	var price int64
	if err := row.Scan(&l.CardID, &l.Seller, &price, &l.CreatedAt); err != nil {
		return domain.Listing{}, err
	}
	l.Price = uint64(price)
	return l, nil
}

// GetByCard retrieves the active listing for a card.
func (s *ListingStore) GetByCard(ctx context.Context, cardID string) (domain.Listing, error) {
	row := s.db.QueryRow(ctx,
		`SELECT card_id, seller, price, created_at FROM listings WHERE card_id = $1`, cardID)
	l, err := scanListing(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Listing{}, domain.ErrNotFound
		}
		return domain.Listing{}, fmt.Errorf("postgres: get listing for card %s: %w", cardID, err)
	}
	return l, nil
}

// Delete removes the listing for a card.
func (s *ListingStore) Delete(ctx context.Context, cardID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM listings WHERE card_id = $1`, cardID)
	if err != nil {
		return fmt.Errorf("postgres: delete listing for card %s: %w", cardID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns active listings, newest first.
func (s *ListingStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Listing, error) {
	query := `SELECT card_id, seller, price, created_at FROM listings WHERE 1=1`
	args := []any{}
	query, args = appendListOpts(query, args, "created_at", opts)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list listings: %w", err)
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list listings rows: %w", err)
	}
	return listings, nil
}
