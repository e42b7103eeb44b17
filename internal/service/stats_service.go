package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// StatsService handles account setup, battle bookkeeping, collections, and
// leaderboard reads.
type StatsService struct {
	tx     domain.TxRunner
	bus    domain.SignalBus
	logger *slog.Logger
	now    Clock
}

// NewStatsService creates a StatsService with all required dependencies.
func NewStatsService(
	tx domain.TxRunner,
	bus domain.SignalBus,
	logger *slog.Logger,
	now Clock,
) *StatsService {
	return &StatsService{
		tx:     tx,
		bus:    bus,
		logger: logger,
		now:    now,
	}
}

// InitializeUserStats creates the stats record for an identity, once.
func (s *StatsService) InitializeUserStats(ctx context.Context, identity string) (domain.UserStats, error) {
	now := s.now()
	stats := domain.UserStats{
		Owner:        identity,
		Level:        1,
		CreatedAt:    now,
		LastActivity: now,
	}

	err := s.tx.InTx(ctx, func(st domain.Stores) error {
		if _, err := st.UserStats.GetByOwner(ctx, identity); err == nil {
			return domain.ErrAlreadyExists
		} else if err != domain.ErrNotFound {
			return err
		}
		return st.UserStats.Create(ctx, stats)
	})
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("stats: initialize %s: %w", identity, err)
	}

	s.logger.InfoContext(ctx, "stats: user initialized", slog.String("owner", identity))
	return stats, nil
}

// GetUserStats retrieves the stats record for an identity.
func (s *StatsService) GetUserStats(ctx context.Context, identity string) (domain.UserStats, error) {
	var stats domain.UserStats
	err := s.tx.InTx(ctx, func(st domain.Stores) error {
		var err error
		stats, err = st.UserStats.GetByOwner(ctx, identity)
		return err
	})
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("stats: get %s: %w", identity, err)
	}
	return stats, nil
}

// RecordBattleResult increments the winner's and loser's battle counters.
// Privileged: the caller must be the marketplace authority, since battles
// resolve on the game server, not here.
func (s *StatsService) RecordBattleResult(ctx context.Context, authority, winner, loser string) error {
	err := s.tx.InTx(ctx, func(st domain.Stores) error {
		mp, err := st.Marketplace.Get(ctx)
		if err != nil {
			return err
		}
		if authority != mp.Authority {
			return domain.ErrUnauthorized
		}

		now := s.now()
		won, err := st.UserStats.GetByOwner(ctx, winner)
		if err != nil {
			return err
		}
		won.BattlesWon++
		won.LastActivity = now
		if err := st.UserStats.Update(ctx, won); err != nil {
			return err
		}

		lost, err := st.UserStats.GetByOwner(ctx, loser)
		if err != nil {
			return err
		}
		lost.BattlesLost++
		lost.LastActivity = now
		if err := st.UserStats.Update(ctx, lost); err != nil {
			return err
		}

		return st.Audit.Log(ctx, domain.EventBattleRecorded, map[string]any{
			"winner": winner,
			"loser":  loser,
		})
	})
	if err != nil {
		return fmt.Errorf("stats: record battle %s vs %s: %w", winner, loser, err)
	}
	return nil
}

// CreateCollection creates a named card grouping under an authority.
func (s *StatsService) CreateCollection(ctx context.Context, authority, name, description string, maxSupply *uint64) (domain.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > domain.MaxCollectionNameLen {
		return domain.Collection{}, domain.ErrInvalidName
	}
	if len(description) > domain.MaxDescriptionLen {
		return domain.Collection{}, domain.ErrInvalidName
	}

	col := domain.Collection{
		ID:          uuid.NewString(),
		Authority:   authority,
		Name:        name,
		Description: description,
		MaxSupply:   maxSupply,
		IsActive:    true,
		CreatedAt:   s.now(),
	}
	err := s.tx.InTx(ctx, func(st domain.Stores) error {
		if err := st.Collections.Create(ctx, col); err != nil {
			return err
		}
		return st.Audit.Log(ctx, "collection_created", map[string]any{
			"collection_id": col.ID,
			"authority":     authority,
			"name":          name,
		})
	})
	if err != nil {
		return domain.Collection{}, fmt.Errorf("stats: create collection: %w", err)
	}

	s.logger.InfoContext(ctx, "stats: collection created",
		slog.String("collection_id", col.ID),
		slog.String("name", name),
	)
	return col, nil
}

// ListCollections returns collections, newest first.
func (s *StatsService) ListCollections(ctx context.Context, opts domain.ListOpts) ([]domain.Collection, error) {
	var cols []domain.Collection
	err := s.tx.InTx(ctx, func(st domain.Stores) error {
		var err error
		cols, err = st.Collections.List(ctx, opts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("stats: list collections: %w", err)
	}
	return cols, nil
}

// Leaderboard returns the highest-level accounts.
func (s *StatsService) Leaderboard(ctx context.Context, limit int) ([]domain.UserStats, error) {
	var top []domain.UserStats
	err := s.tx.InTx(ctx, func(st domain.Stores) error {
		var err error
		top, err = st.UserStats.ListTop(ctx, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("stats: leaderboard: %w", err)
	}
	return top, nil
}
