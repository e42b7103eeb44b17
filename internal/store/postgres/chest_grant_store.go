package postgres

import (
	"context"
	"fmt"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// ChestGrantStore implements domain.ChestGrantStore using PostgreSQL.
type ChestGrantStore struct {
	db DBTX
}

// NewChestGrantStore creates a new ChestGrantStore backed by the given querier.
func NewChestGrantStore(db DBTX) *ChestGrantStore {
	return &ChestGrantStore{db: db}
}

// Insert appends a chest opening record.
func (s *ChestGrantStore) Insert(ctx context.Context, g domain.ChestGrant) error {
	const query = `
		INSERT INTO chest_grants (id, owner, kind, card_id, rarity, cost, opened_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.Exec(ctx, query,
		g.ID, g.Owner, string(g.Kind), g.CardID, string(g.Rarity),
		int64(g.Cost), g.OpenedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert chest grant %s: %w", g.ID, err)
	}
	return nil
}

// ListByOwner returns one identity's chest history, newest first.
func (s *ChestGrantStore) ListByOwner(ctx context.Context, owner string, opts domain.ListOpts) ([]domain.ChestGrant, error) {
	query := `SELECT id, owner, kind, card_id, rarity, cost, opened_at
		FROM chest_grants WHERE owner = $1`
	args := []any{owner}
	query, args = appendListOpts(query, args, "opened_at", opts)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list chest grants: %w", err)
	}
	defer rows.Close()

	var grants []domain.ChestGrant
	for rows.Next() {
		var g domain.ChestGrant
		var kind, rarity string
		var cost int64
		if err := rows.Scan(&g.ID, &g.Owner, &kind, &g.CardID, &rarity, &cost, &g.OpenedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan chest grant: %w", err)
		}
		g.Kind = domain.ChestKind(kind)
		g.Rarity = domain.Rarity(rarity)
		g.Cost = uint64(cost)
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list chest grants rows: %w", err)
	}
	return grants, nil
}
