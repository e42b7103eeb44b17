package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// SaleStore implements domain.SaleStore using PostgreSQL.
type SaleStore struct {
	db DBTX
}

// NewSaleStore creates a new SaleStore backed by the given querier.
func NewSaleStore(db DBTX) *SaleStore {
	return &SaleStore{db: db}
}

const saleCols = `id, card_id, seller, buyer, price, fee, kind, executed_at`

// Insert appends a completed sale record.
func (s *SaleStore) Insert(ctx context.Context, sale domain.Sale) error {
	const query = `
		INSERT INTO sales (id, card_id, seller, buyer, price, fee, kind, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.db.Exec(ctx, query,
		sale.ID, sale.CardID, sale.Seller, sale.Buyer,
		int64(sale.Price), int64(sale.Fee), string(sale.Kind), sale.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert sale %s: %w", sale.ID, err)
	}
	return nil
}

func scanSale(row pgx.Row) (domain.Sale, error) {
	var sale domain.Sale
	var price, fee int64
	var kind string

	err := row.Scan(
		&sale.ID, &sale.CardID, &sale.Seller, &sale.Buyer,
		&price, &fee, &kind, &sale.ExecutedAt,
	)
	if err != nil {
		return domain.Sale{}, err
	}

	sale.Price = uint64(price)
	sale.Fee = uint64(fee)
	sale.Kind = domain.SaleKind(kind)
	return sale, nil
}

// ListByCard returns the sale history of one card, newest first.
func (s *SaleStore) ListByCard(ctx context.Context, cardID string, opts domain.ListOpts) ([]domain.Sale, error) {
	query := `SELECT ` + saleCols + ` FROM sales WHERE card_id = $1`
	args := []any{cardID}
	query, args = appendListOpts(query, args, "executed_at", opts)

	return s.querySales(ctx, query, args, "list sales by card")
}

// ListRecent returns the most recent sales across the marketplace.
func (s *SaleStore) ListRecent(ctx context.Context, limit int) ([]domain.Sale, error) {
	query := `SELECT ` + saleCols + ` FROM sales ORDER BY executed_at DESC LIMIT $1`
	return s.querySales(ctx, query, []any{limit}, "list recent sales")
}

// ListBefore returns sales executed before the cutoff, oldest first, for
// archival.
func (s *SaleStore) ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.Sale, error) {
	query := `SELECT ` + saleCols + ` FROM sales WHERE executed_at < $1 ORDER BY executed_at ASC LIMIT $2`
	return s.querySales(ctx, query, []any{before, limit}, "list sales before")
}

// DeleteBefore removes sales executed before the cutoff and reports how
// many rows went.
func (s *SaleStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM sales WHERE executed_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete sales before %s: %w", before.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

func (s *SaleStore) querySales(ctx context.Context, query string, args []any, op string) ([]domain.Sale, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", op, err)
	}
	defer rows.Close()

	var sales []domain.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: %s scan: %w", op, err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: %s rows: %w", op, err)
	}
	return sales, nil
}
