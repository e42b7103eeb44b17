package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// UserStatsStore implements domain.UserStatsStore using PostgreSQL.
type UserStatsStore struct {
	db DBTX
}

// NewUserStatsStore creates a new UserStatsStore backed by the given querier.
func NewUserStatsStore(db DBTX) *UserStatsStore {
	return &UserStatsStore{db: db}
}

const userStatsCols = `owner, cards_owned, cards_minted, total_spent, total_earned,
	battles_won, battles_lost, experience, level, created_at, last_activity`

// Create inserts a fresh stats record for an identity.
func (s *UserStatsStore) Create(ctx context.Context, u domain.UserStats) error {
	const query = `
		INSERT INTO user_stats (
			owner, cards_owned, cards_minted, total_spent, total_earned,
			battles_won, battles_lost, experience, level, created_at, last_activity
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.Exec(ctx, query,
		u.Owner, int64(u.CardsOwned), int64(u.CardsMinted),
		int64(u.TotalSpent), int64(u.TotalEarned),
		int64(u.BattlesWon), int64(u.BattlesLost),
		int64(u.Experience), int16(u.Level),
		u.CreatedAt, u.LastActivity,
	)
	if err != nil {
		return fmt.Errorf("postgres: create user stats %s: %w", u.Owner, err)
	}
	return nil
}

// Update rewrites every mutable column of the stats record.
func (s *UserStatsStore) Update(ctx context.Context, u domain.UserStats) error {
	const query = `
		UPDATE user_stats SET
			cards_owned   = $2,
			cards_minted  = $3,
			total_spent   = $4,
			total_earned  = $5,
			battles_won   = $6,
			battles_lost  = $7,
			experience    = $8,
			level         = $9,
			last_activity = $10
		WHERE owner = $1`

	tag, err := s.db.Exec(ctx, query,
		u.Owner, int64(u.CardsOwned), int64(u.CardsMinted),
		int64(u.TotalSpent), int64(u.TotalEarned),
		int64(u.BattlesWon), int64(u.BattlesLost),
		int64(u.Experience), int16(u.Level),
		u.LastActivity,
	)
	if err != nil {
		return fmt.Errorf("postgres: update user stats %s: %w", u.Owner, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanUserStats(row pgx.Row) (domain.UserStats, error) {
	var u domain.UserStats
	var owned, minted, spent, earned, won, lost, exp int64
	var level int16

	err := row.Scan(
		&u.Owner, &owned, &minted, &spent, &earned,
		&won, &lost, &exp, &level,
		&u.CreatedAt, &u.LastActivity,
	)
	if err != nil {
		return domain.UserStats{}, err
	}

	u.CardsOwned = uint64(owned)
	u.CardsMinted = uint64(minted)
	u.TotalSpent = uint64(spent)
	u.TotalEarned = uint64(earned)
	u.BattlesWon = uint32(won)
	u.BattlesLost = uint32(lost)
	u.Experience = uint64(exp)
	u.Level = uint8(level)
	return u, nil
}

// GetByOwner retrieves the stats record for one identity.
func (s *UserStatsStore) GetByOwner(ctx context.Context, owner string) (domain.UserStats, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+userStatsCols+` FROM user_stats WHERE owner = $1`, owner)
	u, err := scanUserStats(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.UserStats{}, domain.ErrNotFound
		}
		return domain.UserStats{}, fmt.Errorf("postgres: get user stats %s: %w", owner, err)
	}
	return u, nil
}

// ListTop returns the highest-level accounts, experience as tiebreak.
func (s *UserStatsStore) ListTop(ctx context.Context, limit int) ([]domain.UserStats, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+userStatsCols+` FROM user_stats
		 ORDER BY level DESC, experience DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list top users: %w", err)
	}
	defer rows.Close()

	var out []domain.UserStats
	for rows.Next() {
		u, err := scanUserStats(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan top user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list top users rows: %w", err)
	}
	return out, nil
}
