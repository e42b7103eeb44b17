package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// TokenLedger implements domain.TokenLedger using PostgreSQL. One row per
// token records the current custody account; the conditional UPDATE in
// TransferUnit makes a transfer from a stale holder fail instead of
// clobbering someone else's custody.
type TokenLedger struct {
	db DBTX
}

// NewTokenLedger creates a new TokenLedger backed by the given querier.
func NewTokenLedger(db DBTX) *TokenLedger {
	return &TokenLedger{db: db}
}

// CreateUnit registers a new token under the given account.
func (l *TokenLedger) CreateUnit(ctx context.Context, tokenID, account string) error {
	const query = `INSERT INTO token_custody (token_id, account) VALUES ($1, $2)`
	_, err := l.db.Exec(ctx, query, tokenID, account)
	if err != nil {
		return fmt.Errorf("postgres: create token unit %s: %w", tokenID, err)
	}
	return nil
}

// Holder returns the account currently holding the token.
func (l *TokenLedger) Holder(ctx context.Context, tokenID string) (string, error) {
	var account string
	err := l.db.QueryRow(ctx,
		`SELECT account FROM token_custody WHERE token_id = $1`, tokenID).Scan(&account)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("postgres: get token holder %s: %w", tokenID, err)
	}
	return account, nil
}

// TransferUnit moves the token from one account to another. The WHERE
// clause checks the current holder, so a mismatch affects zero rows and
// the transfer is refused.
func (l *TokenLedger) TransferUnit(ctx context.Context, tokenID, from, to string) error {
	const query = `UPDATE token_custody SET account = $3 WHERE token_id = $1 AND account = $2`
	tag, err := l.db.Exec(ctx, query, tokenID, from, to)
	if err != nil {
		return fmt.Errorf("postgres: transfer token %s: %w", tokenID, err)
	}
	if tag.RowsAffected() == 0 {
		// Either the token does not exist or from is not the holder.
		if _, herr := l.Holder(ctx, tokenID); herr != nil {
			return herr
		}
		return domain.ErrUnauthorized
	}
	return nil
}
