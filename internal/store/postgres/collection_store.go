package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// CollectionStore implements domain.CollectionStore using PostgreSQL.
type CollectionStore struct {
	db DBTX
}

// NewCollectionStore creates a new CollectionStore backed by the given querier.
func NewCollectionStore(db DBTX) *CollectionStore {
	return &CollectionStore{db: db}
}

const collectionCols = `id, authority, name, description, total_cards, max_supply,
	is_active, created_at`

// Create inserts a collection.
func (s *CollectionStore) Create(ctx context.Context, c domain.Collection) error {
	const query = `
		INSERT INTO collections (
			id, authority, name, description, total_cards, max_supply,
			is_active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.db.Exec(ctx, query,
		c.ID, c.Authority, c.Name, c.Description,
		int64(c.TotalCards), priceArg(c.MaxSupply),
		c.IsActive, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create collection %s: %w", c.ID, err)
	}
	return nil
}

func scanCollection(row pgx.Row) (domain.Collection, error) {
	var c domain.Collection
	var total int64
	var maxSupply *int64

	err := row.Scan(
		&c.ID, &c.Authority, &c.Name, &c.Description,
		&total, &maxSupply, &c.IsActive, &c.CreatedAt,
	)
	if err != nil {
		return domain.Collection{}, err
	}

	c.TotalCards = uint64(total)
	if maxSupply != nil {
		v := uint64(*maxSupply)
		c.MaxSupply = &v
	}
	return c, nil
}

// GetByID retrieves a collection by its primary key.
func (s *CollectionStore) GetByID(ctx context.Context, id string) (domain.Collection, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+collectionCols+` FROM collections WHERE id = $1`, id)
	c, err := scanCollection(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Collection{}, domain.ErrNotFound
		}
		return domain.Collection{}, fmt.Errorf("postgres: get collection %s: %w", id, err)
	}
	return c, nil
}

// IncrementTotal bumps the mint counter for a collection.
func (s *CollectionStore) IncrementTotal(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE collections SET total_cards = total_cards + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: increment collection %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns collections, newest first.
func (s *CollectionStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Collection, error) {
	query := `SELECT ` + collectionCols + ` FROM collections WHERE 1=1`
	args := []any{}
	query, args = appendListOpts(query, args, "created_at", opts)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list collections: %w", err)
	}
	defer rows.Close()

	var out []domain.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan collection: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list collections rows: %w", err)
	}
	return out, nil
}
