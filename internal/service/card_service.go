package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// MintParams carries the caller-supplied fields of a new card.
type MintParams struct {
	Owner          string
	Name           string
	Rarity         domain.Rarity
	Element        domain.Element
	SpecialAbility *string
	CollectionID   string
}

// StatsPatch overwrites combat stats; nil fields are left untouched.
type StatsPatch struct {
	Attack         *uint16
	Defense        *uint16
	Health         *uint16
	SpecialAbility *string
}

// CardService handles card reads, minting, direct transfers, and the
// privileged stat override.
type CardService struct {
	tx     domain.TxRunner
	locks  domain.LockManager
	cache  domain.CardCache
	bus    domain.SignalBus
	logger *slog.Logger
	now    Clock
}

// NewCardService creates a CardService with all required dependencies.
func NewCardService(
	tx domain.TxRunner,
	locks domain.LockManager,
	cache domain.CardCache,
	bus domain.SignalBus,
	logger *slog.Logger,
	now Clock,
) *CardService {
	return &CardService{
		tx:     tx,
		locks:  locks,
		cache:  cache,
		bus:    bus,
		logger: logger,
		now:    now,
	}
}

// GetCard retrieves a card by ID, checking the cache first and falling back
// to the store on a miss.
func (s *CardService) GetCard(ctx context.Context, id string) (domain.Card, error) {
	c, err := s.cache.Get(ctx, id)
	if err == nil {
		return c, nil
	}

	err = s.tx.InTx(ctx, func(st domain.Stores) error {
		c, err = st.Cards.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return domain.Card{}, fmt.Errorf("card: get %s: %w", id, err)
	}

	if cacheErr := s.cache.Set(ctx, c); cacheErr != nil {
		s.logger.WarnContext(ctx, "card: cache set failed",
			slog.String("card_id", id),
			slog.String("error", cacheErr.Error()),
		)
	}
	return c, nil
}

// ListByOwner returns one identity's cards.
func (s *CardService) ListByOwner(ctx context.Context, owner string, opts domain.ListOpts) ([]domain.Card, error) {
	var cards []domain.Card
	err := s.tx.InTx(ctx, func(st domain.Stores) error {
		var err error
		cards, err = st.Cards.ListByOwner(ctx, owner, opts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("card: list by owner %s: %w", owner, err)
	}
	return cards, nil
}

// ListListed returns cards currently up for sale or auction.
func (s *CardService) ListListed(ctx context.Context, opts domain.ListOpts) ([]domain.Card, error) {
	var cards []domain.Card
	err := s.tx.InTx(ctx, func(st domain.Stores) error {
		var err error
		cards, err = st.Cards.ListListed(ctx, opts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("card: list listed: %w", err)
	}
	return cards, nil
}

// MintCard creates a new level-1 card with base stats for its rarity, seeds
// the token ledger, bumps the collection counter against its supply cap,
// and credits the owner's minted/owned counters.
func (s *CardService) MintCard(ctx context.Context, p MintParams) (domain.Card, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" || len(name) > domain.MaxCardNameLen {
		return domain.Card{}, domain.ErrInvalidName
	}
	if !p.Rarity.Valid() {
		return domain.Card{}, domain.ErrInvalidRarity
	}
	if !p.Element.Valid() {
		return domain.Card{}, domain.ErrInvalidElement
	}

	attack, defense, health := p.Rarity.BaseStats()
	now := s.now()
	card := domain.Card{
		ID:             uuid.NewString(),
		Owner:          p.Owner,
		Name:           name,
		Rarity:         p.Rarity,
		Element:        p.Element,
		Attack:         attack,
		Defense:        defense,
		Health:         health,
		SpecialAbility: p.SpecialAbility,
		Level:          1,
		CreatedAt:      now,
		LastUpdated:    now,
	}
	if card.SpecialAbility == nil {
		basic := "Basic Attack"
		card.SpecialAbility = &basic
	}

	err := s.tx.InTx(ctx, func(st domain.Stores) error {
		if p.CollectionID != "" {
			col, err := st.Collections.GetByID(ctx, p.CollectionID)
			if err != nil {
				return err
			}
			if !col.IsActive {
				return domain.ErrCollectionInactive
			}
			if col.Full() {
				return domain.ErrMaxSupplyReached
			}
			if err := st.Collections.IncrementTotal(ctx, p.CollectionID); err != nil {
				return err
			}
		}

		if err := st.Cards.Create(ctx, card); err != nil {
			return err
		}
		if err := st.Ledger.CreateUnit(ctx, card.ID, p.Owner); err != nil {
			return err
		}

		stats, err := st.UserStats.GetByOwner(ctx, p.Owner)
		if err != nil {
			return err
		}
		stats.CardsOwned++
		stats.CardsMinted++
		stats.LastActivity = now
		if err := st.UserStats.Update(ctx, stats); err != nil {
			return err
		}

		return st.Audit.Log(ctx, domain.EventCardMinted, map[string]any{
			"card_id": card.ID,
			"owner":   p.Owner,
			"rarity":  string(p.Rarity),
		})
	})
	if err != nil {
		return domain.Card{}, fmt.Errorf("card: mint: %w", err)
	}

	publish(ctx, s.bus, s.logger, domain.ChannelCards, domain.MarketEvent{
		Event:  domain.EventCardMinted,
		CardID: card.ID,
		Actor:  p.Owner,
		At:     s.now(),
	})

	s.logger.InfoContext(ctx, "card: minted",
		slog.String("card_id", card.ID),
		slog.String("owner", p.Owner),
		slog.String("rarity", string(p.Rarity)),
	)
	return card, nil
}

// TransferCard reassigns ownership outside any sale. The card must not be
// listed; the ledger move and both owners' counters commit together.
func (s *CardService) TransferCard(ctx context.Context, from, to, cardID string) error {
	unlock, err := s.locks.Acquire(ctx, cardLockKey(cardID), cardLockTTL)
	if err != nil {
		return fmt.Errorf("card: lock %s: %w", cardID, err)
	}
	defer unlock()

	err = s.tx.InTx(ctx, func(st domain.Stores) error {
		card, err := st.Cards.GetByID(ctx, cardID)
		if err != nil {
			return err
		}
		if card.Owner != from {
			return domain.ErrNotCardOwner
		}
		if card.IsListed {
			return domain.ErrAlreadyListed
		}

		if err := st.Ledger.TransferUnit(ctx, cardID, from, to); err != nil {
			return err
		}

		now := s.now()
		card.Owner = to
		card.LastUpdated = now
		if err := st.Cards.Update(ctx, card); err != nil {
			return err
		}

		sender, err := st.UserStats.GetByOwner(ctx, from)
		if err != nil {
			return err
		}
		if sender.CardsOwned == 0 {
			return domain.ErrInvalidAmount
		}
		sender.CardsOwned--
		sender.LastActivity = now
		if err := st.UserStats.Update(ctx, sender); err != nil {
			return err
		}

		receiver, err := st.UserStats.GetByOwner(ctx, to)
		if err != nil {
			return err
		}
		receiver.CardsOwned++
		receiver.LastActivity = now
		if err := st.UserStats.Update(ctx, receiver); err != nil {
			return err
		}

		return st.Audit.Log(ctx, domain.EventCardTransferred, map[string]any{
			"card_id": cardID,
			"from":    from,
			"to":      to,
		})
	})
	if err != nil {
		return fmt.Errorf("card: transfer %s: %w", cardID, err)
	}

	s.invalidate(ctx, cardID)
	publish(ctx, s.bus, s.logger, domain.ChannelCards, domain.MarketEvent{
		Event:  domain.EventCardTransferred,
		CardID: cardID,
		Actor:  from,
		Detail: map[string]any{"to": to},
		At:     s.now(),
	})
	return nil
}

// UpdateCardStats overwrites combat stats directly. This is a game-master
// capability: the caller must be the marketplace authority, and fields not
// present in the patch keep their values.
func (s *CardService) UpdateCardStats(ctx context.Context, authority, cardID string, patch StatsPatch) (domain.Card, error) {
	unlock, err := s.locks.Acquire(ctx, cardLockKey(cardID), cardLockTTL)
	if err != nil {
		return domain.Card{}, fmt.Errorf("card: lock %s: %w", cardID, err)
	}
	defer unlock()

	var card domain.Card
	err = s.tx.InTx(ctx, func(st domain.Stores) error {
		mp, err := st.Marketplace.Get(ctx)
		if err != nil {
			return err
		}
		if authority != mp.Authority {
			return domain.ErrUnauthorized
		}

		card, err = st.Cards.GetByID(ctx, cardID)
		if err != nil {
			return err
		}

		if patch.Attack != nil {
			card.Attack = *patch.Attack
		}
		if patch.Defense != nil {
			card.Defense = *patch.Defense
		}
		if patch.Health != nil {
			card.Health = *patch.Health
		}
		if patch.SpecialAbility != nil {
			card.SpecialAbility = patch.SpecialAbility
		}
		card.LastUpdated = s.now()
		if err := st.Cards.Update(ctx, card); err != nil {
			return err
		}

		return st.Audit.Log(ctx, "card_stats_updated", map[string]any{
			"card_id":   cardID,
			"authority": authority,
		})
	})
	if err != nil {
		return domain.Card{}, fmt.Errorf("card: update stats %s: %w", cardID, err)
	}

	s.invalidate(ctx, cardID)
	return card, nil
}

func (s *CardService) invalidate(ctx context.Context, cardID string) {
	if err := s.cache.Invalidate(ctx, cardID); err != nil {
		s.logger.WarnContext(ctx, "card: cache invalidate failed",
			slog.String("card_id", cardID),
			slog.String("error", err.Error()),
		)
	}
}
