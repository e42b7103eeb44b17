package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pookielabs/cardmarket/internal/domain"
	"github.com/pookielabs/cardmarket/internal/escrow"
)

// MarketService handles the fixed-price workflow: marketplace setup,
// listing, purchase, and cancellation.
type MarketService struct {
	tx     domain.TxRunner
	locks  domain.LockManager
	cache  domain.CardCache
	bus    domain.SignalBus
	logger *slog.Logger
	now    Clock
}

// NewMarketService creates a MarketService with all required dependencies.
func NewMarketService(
	tx domain.TxRunner,
	locks domain.LockManager,
	cache domain.CardCache,
	bus domain.SignalBus,
	logger *slog.Logger,
	now Clock,
) *MarketService {
	return &MarketService{
		tx:     tx,
		locks:  locks,
		cache:  cache,
		bus:    bus,
		logger: logger,
		now:    now,
	}
}

// InitializeMarketplace creates the singleton marketplace record. Fails
// with ErrAlreadyExists on a second call and ErrInvalidFee above 1000 bps.
func (s *MarketService) InitializeMarketplace(ctx context.Context, authority string, feeBps uint16) (domain.Marketplace, error) {
	if feeBps > domain.MaxFeeBps {
		return domain.Marketplace{}, domain.ErrInvalidFee
	}

	m := domain.Marketplace{
		Authority: authority,
		FeeBps:    feeBps,
		CreatedAt: s.now(),
	}
	err := s.tx.InTx(ctx, func(st domain.Stores) error {
		if err := st.Marketplace.Init(ctx, m); err != nil {
			return err
		}
		return st.Audit.Log(ctx, "marketplace_initialized", map[string]any{
			"authority": authority,
			"fee_bps":   feeBps,
		})
	})
	if err != nil {
		return domain.Marketplace{}, fmt.Errorf("market: initialize marketplace: %w", err)
	}

	s.logger.InfoContext(ctx, "market: marketplace initialized",
		slog.String("authority", authority),
		slog.Int("fee_bps", int(feeBps)),
	)
	return m, nil
}

// GetMarketplace retrieves the singleton marketplace record.
func (s *MarketService) GetMarketplace(ctx context.Context) (domain.Marketplace, error) {
	var m domain.Marketplace
	err := s.tx.InTx(ctx, func(st domain.Stores) error {
		var err error
		m, err = st.Marketplace.Get(ctx)
		return err
	})
	if err != nil {
		return domain.Marketplace{}, fmt.Errorf("market: get marketplace: %w", err)
	}
	return m, nil
}

// ListCard puts a card up for sale at a fixed price. The card's token moves
// into escrow custody within the same transaction that creates the listing.
func (s *MarketService) ListCard(ctx context.Context, seller, cardID string, price uint64) (domain.Listing, error) {
	if price == 0 {
		return domain.Listing{}, domain.ErrInvalidPrice
	}

	unlock, err := s.locks.Acquire(ctx, cardLockKey(cardID), cardLockTTL)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("market: lock card %s: %w", cardID, err)
	}
	defer unlock()

	var listing domain.Listing
	err = s.tx.InTx(ctx, func(st domain.Stores) error {
		card, err := st.Cards.GetByID(ctx, cardID)
		if err != nil {
			return err
		}
		if card.Owner != seller {
			return domain.ErrNotCardOwner
		}

		if err := escrow.NewManager(st.Ledger).In(ctx, card); err != nil {
			return err
		}

		now := s.now()
		listing = domain.Listing{
			Seller:    seller,
			CardID:    cardID,
			Price:     price,
			CreatedAt: now,
		}
		if err := st.Listings.Create(ctx, listing); err != nil {
			return err
		}

		card.IsListed = true
		card.ListingPrice = &price
		card.LastUpdated = now
		if err := st.Cards.Update(ctx, card); err != nil {
			return err
		}

		return st.Audit.Log(ctx, domain.EventCardListed, map[string]any{
			"card_id": cardID,
			"seller":  seller,
			"price":   price,
		})
	})
	if err != nil {
		return domain.Listing{}, fmt.Errorf("market: list card %s: %w", cardID, err)
	}

	s.invalidate(ctx, cardID)
	publish(ctx, s.bus, s.logger, domain.ChannelMarket, domain.MarketEvent{
		Event:  domain.EventCardListed,
		CardID: cardID,
		Actor:  seller,
		Price:  price,
		At:     s.now(),
	})
	return listing, nil
}

// BuyCard executes a fixed-price purchase: the token leaves escrow for the
// buyer, the seller is credited price minus fee, marketplace totals and
// both parties' stats update, the listing is destroyed, and a Sale record
// is written. All of it commits atomically or none of it does.
func (s *MarketService) BuyCard(ctx context.Context, buyer, cardID string) (domain.Sale, error) {
	unlock, err := s.locks.Acquire(ctx, cardLockKey(cardID), cardLockTTL)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("market: lock card %s: %w", cardID, err)
	}
	defer unlock()

	var sale domain.Sale
	err = s.tx.InTx(ctx, func(st domain.Stores) error {
		listing, err := st.Listings.GetByCard(ctx, cardID)
		if err != nil {
			if err == domain.ErrNotFound {
				return domain.ErrNotListed
			}
			return err
		}

		card, err := st.Cards.GetByID(ctx, cardID)
		if err != nil {
			return err
		}
		// Stale-listing defense: the logical owner must still be the
		// recorded seller.
		if card.Owner != listing.Seller {
			return domain.ErrNotListed
		}

		mp, err := st.Marketplace.Get(ctx)
		if err != nil {
			return err
		}
		fee, sellerAmount := domain.SplitFee(listing.Price, mp.FeeBps)

		now := s.now()
		sale = domain.Sale{
			ID:         uuid.NewString(),
			CardID:     cardID,
			Seller:     listing.Seller,
			Buyer:      buyer,
			Price:      listing.Price,
			Fee:        fee,
			Kind:       domain.SaleKindListing,
			ExecutedAt: now,
		}

		if err := settleSale(ctx, st, sale, sellerAmount, now); err != nil {
			return err
		}

		if err := st.Listings.Delete(ctx, cardID); err != nil {
			return err
		}

		return st.Audit.Log(ctx, domain.EventSaleCompleted, map[string]any{
			"card_id": cardID,
			"seller":  listing.Seller,
			"buyer":   buyer,
			"price":   listing.Price,
			"fee":     fee,
		})
	})
	if err != nil {
		return domain.Sale{}, fmt.Errorf("market: buy card %s: %w", cardID, err)
	}

	s.invalidate(ctx, cardID)
	publish(ctx, s.bus, s.logger, domain.ChannelMarket, domain.MarketEvent{
		Event:  domain.EventSaleCompleted,
		CardID: cardID,
		Actor:  buyer,
		Price:  sale.Price,
		At:     s.now(),
	})

	s.logger.InfoContext(ctx, "market: sale completed",
		slog.String("card_id", cardID),
		slog.String("buyer", buyer),
		slog.Uint64("price", sale.Price),
	)
	return sale, nil
}

// CancelListing returns a listed card to its seller. No stats, volume, or
// sale counters change; the round trip is free.
func (s *MarketService) CancelListing(ctx context.Context, seller, cardID string) error {
	unlock, err := s.locks.Acquire(ctx, cardLockKey(cardID), cardLockTTL)
	if err != nil {
		return fmt.Errorf("market: lock card %s: %w", cardID, err)
	}
	defer unlock()

	err = s.tx.InTx(ctx, func(st domain.Stores) error {
		listing, err := st.Listings.GetByCard(ctx, cardID)
		if err != nil {
			if err == domain.ErrNotFound {
				return domain.ErrNotListed
			}
			return err
		}
		if listing.Seller != seller {
			return domain.ErrUnauthorized
		}

		card, err := st.Cards.GetByID(ctx, cardID)
		if err != nil {
			return err
		}

		if err := escrow.NewManager(st.Ledger).Out(ctx, cardID, seller); err != nil {
			return err
		}

		card.IsListed = false
		card.ListingPrice = nil
		card.LastUpdated = s.now()
		if err := st.Cards.Update(ctx, card); err != nil {
			return err
		}

		if err := st.Listings.Delete(ctx, cardID); err != nil {
			return err
		}

		return st.Audit.Log(ctx, domain.EventListingCanceled, map[string]any{
			"card_id": cardID,
			"seller":  seller,
		})
	})
	if err != nil {
		return fmt.Errorf("market: cancel listing for card %s: %w", cardID, err)
	}

	s.invalidate(ctx, cardID)
	publish(ctx, s.bus, s.logger, domain.ChannelMarket, domain.MarketEvent{
		Event:  domain.EventListingCanceled,
		CardID: cardID,
		Actor:  seller,
		At:     s.now(),
	})
	return nil
}

// ListListings returns active listings from the store.
func (s *MarketService) ListListings(ctx context.Context, opts domain.ListOpts) ([]domain.Listing, error) {
	var listings []domain.Listing
	err := s.tx.InTx(ctx, func(st domain.Stores) error {
		var err error
		listings, err = st.Listings.List(ctx, opts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("market: list listings: %w", err)
	}
	return listings, nil
}

// ListSales returns recent completed sales.
func (s *MarketService) ListSales(ctx context.Context, limit int) ([]domain.Sale, error) {
	var sales []domain.Sale
	err := s.tx.InTx(ctx, func(st domain.Stores) error {
		var err error
		sales, err = st.Sales.ListRecent(ctx, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("market: list sales: %w", err)
	}
	return sales, nil
}

func (s *MarketService) invalidate(ctx context.Context, cardID string) {
	if err := s.cache.Invalidate(ctx, cardID); err != nil {
		s.logger.WarnContext(ctx, "market: cache invalidate failed",
			slog.String("card_id", cardID),
			slog.String("error", err.Error()),
		)
	}
}
