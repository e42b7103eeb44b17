package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// CardStore implements domain.CardStore using PostgreSQL.
type CardStore struct {
	db DBTX
}

// NewCardStore creates a new CardStore backed by the given querier.
func NewCardStore(db DBTX) *CardStore {
	return &CardStore{db: db}
}

const cardCols = `id, owner, name, rarity, element,
	attack, defense, health, special_ability,
	level, experience, is_listed, listing_price,
	created_at, last_updated`

// Create inserts a freshly minted card.
func (s *CardStore) Create(ctx context.Context, c domain.Card) error {
	const query = `
		INSERT INTO cards (
			id, owner, name, rarity, element,
			attack, defense, health, special_ability,
			level, experience, is_listed, listing_price,
			created_at, last_updated
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15
		)`

	_, err := s.db.Exec(ctx, query,
		c.ID, c.Owner, c.Name, string(c.Rarity), string(c.Element),
		int32(c.Attack), int32(c.Defense), int32(c.Health), c.SpecialAbility,
		int16(c.Level), int64(c.Experience), c.IsListed, priceArg(c.ListingPrice),
		c.CreatedAt, c.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("postgres: create card %s: %w", c.ID, err)
	}
	return nil
}

// Update rewrites every mutable column of the card.
func (s *CardStore) Update(ctx context.Context, c domain.Card) error {
	const query = `
		UPDATE cards SET
			owner           = $2,
			name            = $3,
			attack          = $4,
			defense         = $5,
			health          = $6,
			special_ability = $7,
			level           = $8,
			experience      = $9,
			is_listed       = $10,
			listing_price   = $11,
			last_updated    = $12
		WHERE id = $1`

	tag, err := s.db.Exec(ctx, query,
		c.ID, c.Owner, c.Name,
		int32(c.Attack), int32(c.Defense), int32(c.Health), c.SpecialAbility,
		int16(c.Level), int64(c.Experience), c.IsListed, priceArg(c.ListingPrice),
		c.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("postgres: update card %s: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// scanCard scans a single card row into a domain.Card.
func scanCard(row pgx.Row) (domain.Card, error) {
	var c domain.Card
	var rarity, element string
	var attack, defense, health int32
	var level int16
	var experience int64
	var listingPrice *int64

	err := row.Scan(
		&c.ID, &c.Owner, &c.Name, &rarity, &element,
		&attack, &defense, &health, &c.SpecialAbility,
		&level, &experience, &c.IsListed, &listingPrice,
		&c.CreatedAt, &c.LastUpdated,
	)
	if err != nil {
		return domain.Card{}, err
	}

	c.Rarity = domain.Rarity(rarity)
	c.Element = domain.Element(element)
	c.Attack = uint16(attack)
	c.Defense = uint16(defense)
	c.Health = uint16(health)
	c.Level = uint8(level)
	c.Experience = uint32(experience)
	if listingPrice != nil {
		p := uint64(*listingPrice)
		c.ListingPrice = &p
	}
	return c, nil
}

// GetByID retrieves a card by its primary key.
func (s *CardStore) GetByID(ctx context.Context, id string) (domain.Card, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+cardCols+` FROM cards WHERE id = $1`, id)
	c, err := scanCard(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Card{}, domain.ErrNotFound
		}
		return domain.Card{}, fmt.Errorf("postgres: get card %s: %w", id, err)
	}
	return c, nil
}

// ListByOwner returns the cards held by one owner, newest first.
func (s *CardStore) ListByOwner(ctx context.Context, owner string, opts domain.ListOpts) ([]domain.Card, error) {
	query := `SELECT ` + cardCols + ` FROM cards WHERE owner = $1`
	args := []any{owner}
	query, args = appendListOpts(query, args, "created_at", opts)

	return s.queryCards(ctx, query, args, "list cards by owner")
}

// ListListed returns cards currently flagged as listed, newest first.
func (s *CardStore) ListListed(ctx context.Context, opts domain.ListOpts) ([]domain.Card, error) {
	query := `SELECT ` + cardCols + ` FROM cards WHERE is_listed = TRUE`
	args := []any{}
	query, args = appendListOpts(query, args, "created_at", opts)

	return s.queryCards(ctx, query, args, "list listed cards")
}

func (s *CardStore) queryCards(ctx context.Context, query string, args []any, op string) ([]domain.Card, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", op, err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: %s scan: %w", op, err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: %s rows: %w", op, err)
	}
	return cards, nil
}

// Count returns the total number of minted cards.
func (s *CardStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM cards").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: count cards: %w", err)
	}
	return count, nil
}

func priceArg(p *uint64) *int64 {
	if p == nil {
		return nil
	}
	v := int64(*p)
	return &v
}

// appendListOpts extends query with time filters, ordering, limit, and
// offset derived from opts. The caller's WHERE clause must already be in
// place; filters are appended with AND.
func appendListOpts(query string, args []any, timeCol string, opts domain.ListOpts) (string, []any) {
	argIdx := len(args) + 1

	if opts.Since != nil {
		query += fmt.Sprintf(" AND %s >= $%d", timeCol, argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND %s <= $%d", timeCol, argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY %s DESC", timeCol)

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}
	return query, args
}
