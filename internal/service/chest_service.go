package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// ChestService handles chest openings: an account spends experience for a
// randomly rolled card.
type ChestService struct {
	tx     domain.TxRunner
	bus    domain.SignalBus
	logger *slog.Logger
	now    Clock
	costs  map[domain.ChestKind]uint64
	roll   func() float64
}

// NewChestService creates a ChestService. roll must return uniform values
// in [0,1); it is injected so tests can pin the outcome.
func NewChestService(
	tx domain.TxRunner,
	bus domain.SignalBus,
	logger *slog.Logger,
	now Clock,
	costs map[domain.ChestKind]uint64,
	roll func() float64,
) *ChestService {
	return &ChestService{
		tx:     tx,
		bus:    bus,
		logger: logger,
		now:    now,
		costs:  costs,
		roll:   roll,
	}
}

var chestElements = []domain.Element{
	domain.ElementFire, domain.ElementWater, domain.ElementEarth,
	domain.ElementAir, domain.ElementLight, domain.ElementDark,
	domain.ElementNeutral,
}

// OpenChest deducts the chest's experience cost from the account, rolls a
// rarity from the chest's odds table, mints the resulting card, and records
// the grant. The deduction and the mint commit together.
func (s *ChestService) OpenChest(ctx context.Context, owner string, kind domain.ChestKind) (domain.ChestGrant, domain.Card, error) {
	if !kind.Valid() {
		return domain.ChestGrant{}, domain.Card{}, domain.ErrInvalidAmount
	}
	cost := s.costs[kind]

	rarity := kind.RollRarity(s.roll())
	element := chestElements[int(s.roll()*float64(len(chestElements)))%len(chestElements)]

	now := s.now()
	attack, defense, health := rarity.BaseStats()
	basic := "Basic Attack"
	card := domain.Card{
		ID:             uuid.NewString(),
		Owner:          owner,
		Name:           fmt.Sprintf("%s chest card", kind),
		Rarity:         rarity,
		Element:        element,
		Attack:         attack,
		Defense:        defense,
		Health:         health,
		SpecialAbility: &basic,
		Level:          1,
		CreatedAt:      now,
		LastUpdated:    now,
	}
	grant := domain.ChestGrant{
		ID:       uuid.NewString(),
		Owner:    owner,
		Kind:     kind,
		CardID:   card.ID,
		Rarity:   rarity,
		Cost:     cost,
		OpenedAt: now,
	}

	err := s.tx.InTx(ctx, func(st domain.Stores) error {
		stats, err := st.UserStats.GetByOwner(ctx, owner)
		if err != nil {
			return err
		}
		if stats.Experience < cost {
			return domain.ErrInsufficientExperience
		}
		stats.Experience -= cost
		stats.CardsOwned++
		stats.CardsMinted++
		stats.LastActivity = now
		if err := st.UserStats.Update(ctx, stats); err != nil {
			return err
		}

		if err := st.Cards.Create(ctx, card); err != nil {
			return err
		}
		if err := st.Ledger.CreateUnit(ctx, card.ID, owner); err != nil {
			return err
		}
		if err := st.Chests.Insert(ctx, grant); err != nil {
			return err
		}

		return st.Audit.Log(ctx, domain.EventChestOpened, map[string]any{
			"owner":  owner,
			"kind":   string(kind),
			"rarity": string(rarity),
			"cost":   cost,
		})
	})
	if err != nil {
		return domain.ChestGrant{}, domain.Card{}, fmt.Errorf("chest: open %s for %s: %w", kind, owner, err)
	}

	publish(ctx, s.bus, s.logger, domain.ChannelCards, domain.MarketEvent{
		Event:  domain.EventChestOpened,
		CardID: card.ID,
		Actor:  owner,
		Detail: map[string]any{"kind": string(kind), "rarity": string(rarity)},
		At:     s.now(),
	})

	s.logger.InfoContext(ctx, "chest: opened",
		slog.String("owner", owner),
		slog.String("kind", string(kind)),
		slog.String("rarity", string(rarity)),
	)
	return grant, card, nil
}

// History returns one identity's chest openings.
func (s *ChestService) History(ctx context.Context, owner string, opts domain.ListOpts) ([]domain.ChestGrant, error) {
	var grants []domain.ChestGrant
	err := s.tx.InTx(ctx, func(st domain.Stores) error {
		var err error
		grants, err = st.Chests.ListByOwner(ctx, owner, opts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("chest: history for %s: %w", owner, err)
	}
	return grants, nil
}
