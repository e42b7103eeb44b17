package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// ProgressionService handles card experience accrual and leveling.
type ProgressionService struct {
	tx     domain.TxRunner
	locks  domain.LockManager
	cache  domain.CardCache
	bus    domain.SignalBus
	logger *slog.Logger
	now    Clock
}

// NewProgressionService creates a ProgressionService with all required dependencies.
func NewProgressionService(
	tx domain.TxRunner,
	locks domain.LockManager,
	cache domain.CardCache,
	bus domain.SignalBus,
	logger *slog.Logger,
	now Clock,
) *ProgressionService {
	return &ProgressionService{
		tx:     tx,
		locks:  locks,
		cache:  cache,
		bus:    bus,
		logger: logger,
		now:    now,
	}
}

// AddExperience adds experience to a card unconditionally. Experience may
// exceed what a capped card can ever consume; that is permitted, not an
// error. The caller is recorded for audit only.
func (s *ProgressionService) AddExperience(ctx context.Context, caller, cardID string, amount uint32) (domain.Card, error) {
	if amount == 0 {
		return domain.Card{}, domain.ErrInvalidAmount
	}

	unlock, err := s.locks.Acquire(ctx, cardLockKey(cardID), cardLockTTL)
	if err != nil {
		return domain.Card{}, fmt.Errorf("progression: lock card %s: %w", cardID, err)
	}
	defer unlock()

	var card domain.Card
	err = s.tx.InTx(ctx, func(st domain.Stores) error {
		card, err = st.Cards.GetByID(ctx, cardID)
		if err != nil {
			return err
		}

		card.Experience += amount
		card.LastUpdated = s.now()
		if err := st.Cards.Update(ctx, card); err != nil {
			return err
		}

		return st.Audit.Log(ctx, "experience_added", map[string]any{
			"card_id": cardID,
			"caller":  caller,
			"amount":  amount,
		})
	})
	if err != nil {
		return domain.Card{}, fmt.Errorf("progression: add experience to card %s: %w", cardID, err)
	}

	s.invalidate(ctx, cardID)
	return card, nil
}

// LevelUpCard advances a card one level. Consumed experience is subtracted,
// so the remainder carries forward. Attack and defense grow by the rarity's
// flat gain and health by twice that. The owner is granted 100 * new_level
// account experience, and the account advances at most one level per call.
func (s *ProgressionService) LevelUpCard(ctx context.Context, owner, cardID string) (domain.Card, error) {
	unlock, err := s.locks.Acquire(ctx, cardLockKey(cardID), cardLockTTL)
	if err != nil {
		return domain.Card{}, fmt.Errorf("progression: lock card %s: %w", cardID, err)
	}
	defer unlock()

	var card domain.Card
	err = s.tx.InTx(ctx, func(st domain.Stores) error {
		card, err = st.Cards.GetByID(ctx, cardID)
		if err != nil {
			return err
		}
		if card.Owner != owner {
			return domain.ErrNotCardOwner
		}
		if card.Level >= card.Rarity.MaxLevel() {
			return domain.ErrMaxLevelReached
		}

		required := domain.RequiredExperience(card.Level)
		if card.Experience < required {
			return domain.ErrInsufficientExperience
		}

		now := s.now()
		gain := card.Rarity.StatGain()
		card.Level++
		card.Experience -= required
		card.Attack += gain
		card.Defense += gain
		card.Health += 2 * gain
		card.LastUpdated = now
		if err := st.Cards.Update(ctx, card); err != nil {
			return err
		}

		stats, err := st.UserStats.GetByOwner(ctx, owner)
		if err != nil {
			return err
		}
		stats.Experience += 100 * uint64(card.Level)
		// One account level step at most, even if the new total clears
		// several thresholds.
		if stats.Level < domain.MaxUserLevel && stats.Experience >= domain.UserRequiredExperience(stats.Level) {
			stats.Level++
		}
		stats.LastActivity = now
		if err := st.UserStats.Update(ctx, stats); err != nil {
			return err
		}

		return st.Audit.Log(ctx, domain.EventCardLeveledUp, map[string]any{
			"card_id":   cardID,
			"owner":     owner,
			"new_level": card.Level,
		})
	})
	if err != nil {
		return domain.Card{}, fmt.Errorf("progression: level up card %s: %w", cardID, err)
	}

	s.invalidate(ctx, cardID)
	publish(ctx, s.bus, s.logger, domain.ChannelCards, domain.MarketEvent{
		Event:  domain.EventCardLeveledUp,
		CardID: cardID,
		Actor:  owner,
		Detail: map[string]any{"level": card.Level},
		At:     s.now(),
	})

	s.logger.InfoContext(ctx, "progression: card leveled up",
		slog.String("card_id", cardID),
		slog.Int("level", int(card.Level)),
	)
	return card, nil
}

func (s *ProgressionService) invalidate(ctx context.Context, cardID string) {
	if err := s.cache.Invalidate(ctx, cardID); err != nil {
		s.logger.WarnContext(ctx, "progression: cache invalidate failed",
			slog.String("card_id", cardID),
			slog.String("error", err.Error()),
		)
	}
}
