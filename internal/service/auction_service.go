package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pookielabs/cardmarket/internal/domain"
	"github.com/pookielabs/cardmarket/internal/escrow"
)

// AuctionService handles the timed ascending-bid workflow: creation, bid
// placement, and settlement.
type AuctionService struct {
	tx     domain.TxRunner
	locks  domain.LockManager
	cache  domain.CardCache
	bus    domain.SignalBus
	logger *slog.Logger
	now    Clock
}

// NewAuctionService creates an AuctionService with all required dependencies.
func NewAuctionService(
	tx domain.TxRunner,
	locks domain.LockManager,
	cache domain.CardCache,
	bus domain.SignalBus,
	logger *slog.Logger,
	now Clock,
) *AuctionService {
	return &AuctionService{
		tx:     tx,
		locks:  locks,
		cache:  cache,
		bus:    bus,
		logger: logger,
		now:    now,
	}
}

// CreateAuction starts a timed auction for a card. The token moves into
// escrow custody and the card is marked listed at the starting price.
func (s *AuctionService) CreateAuction(ctx context.Context, seller, cardID string, startingPrice uint64, duration time.Duration) (domain.Auction, error) {
	if startingPrice == 0 {
		return domain.Auction{}, domain.ErrInvalidPrice
	}
	if duration <= 0 {
		return domain.Auction{}, domain.ErrInvalidDuration
	}

	unlock, err := s.locks.Acquire(ctx, cardLockKey(cardID), cardLockTTL)
	if err != nil {
		return domain.Auction{}, fmt.Errorf("auction: lock card %s: %w", cardID, err)
	}
	defer unlock()

	var auction domain.Auction
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
		auction = domain.Auction{
			CardID:        cardID,
			Seller:        seller,
			StartingPrice: startingPrice,
			EndTime:       now.Add(duration),
			CreatedAt:     now,
		}
		if err := st.Auctions.Create(ctx, auction); err != nil {
			return err
		}

		card.IsListed = true
		card.ListingPrice = &startingPrice
		card.LastUpdated = now
		if err := st.Cards.Update(ctx, card); err != nil {
			return err
		}

		return st.Audit.Log(ctx, domain.EventAuctionCreated, map[string]any{
			"card_id":        cardID,
			"seller":         seller,
			"starting_price": startingPrice,
			"end_time":       auction.EndTime,
		})
	})
	if err != nil {
		return domain.Auction{}, fmt.Errorf("auction: create for card %s: %w", cardID, err)
	}

	s.invalidate(ctx, cardID)
	publish(ctx, s.bus, s.logger, domain.ChannelAuction, domain.MarketEvent{
		Event:  domain.EventAuctionCreated,
		CardID: cardID,
		Actor:  seller,
		Price:  startingPrice,
		At:     s.now(),
	})
	return auction, nil
}

// PlaceBid records a new standing bid. The minimum acceptable bid is the
// standing bid plus a 10% increment, or the starting price for the first
// bid. A rejected bid mutates nothing. Bidder funds are not escrowed; the
// amount is a commitment validated at settlement.
func (s *AuctionService) PlaceBid(ctx context.Context, bidder, cardID string, amount uint64) (domain.Auction, error) {
	unlock, err := s.locks.Acquire(ctx, cardLockKey(cardID), cardLockTTL)
	if err != nil {
		return domain.Auction{}, fmt.Errorf("auction: lock card %s: %w", cardID, err)
	}
	defer unlock()

	var auction domain.Auction
	err = s.tx.InTx(ctx, func(st domain.Stores) error {
		auction, err = st.Auctions.GetByCard(ctx, cardID)
		if err != nil {
			if err == domain.ErrNotFound {
				return domain.ErrAuctionNotActive
			}
			return err
		}
		if auction.Ended(s.now()) {
			return domain.ErrAuctionExpired
		}
		if amount < auction.MinBid() {
			return domain.ErrBidTooLow
		}

		if err := st.Auctions.UpdateBid(ctx, cardID, amount, bidder); err != nil {
			return err
		}
		auction.CurrentBid = &amount
		auction.CurrentBidder = &bidder

		return st.Audit.Log(ctx, domain.EventBidPlaced, map[string]any{
			"card_id": cardID,
			"bidder":  bidder,
			"amount":  amount,
		})
	})
	if err != nil {
		return domain.Auction{}, fmt.Errorf("auction: place bid on card %s: %w", cardID, err)
	}

	publish(ctx, s.bus, s.logger, domain.ChannelAuction, domain.MarketEvent{
		Event:  domain.EventBidPlaced,
		CardID: cardID,
		Actor:  bidder,
		Price:  amount,
		At:     s.now(),
	})
	return auction, nil
}

// EndAuction settles an auction after its deadline. With a standing bid the
// caller must be the recorded bidder and the settlement mirrors a purchase;
// with no bids the token simply returns to the seller. The auction record
// is destroyed either way.
func (s *AuctionService) EndAuction(ctx context.Context, caller, cardID string) (*domain.Sale, error) {
	unlock, err := s.locks.Acquire(ctx, cardLockKey(cardID), cardLockTTL)
	if err != nil {
		return nil, fmt.Errorf("auction: lock card %s: %w", cardID, err)
	}
	defer unlock()

	var sale *domain.Sale
	err = s.tx.InTx(ctx, func(st domain.Stores) error {
		auction, err := st.Auctions.GetByCard(ctx, cardID)
		if err != nil {
			if err == domain.ErrNotFound {
				return domain.ErrAuctionNotActive
			}
			return err
		}

		now := s.now()
		if !auction.Ended(now) {
			return domain.ErrAuctionNotEnded
		}

		if !auction.HasBid() {
			// No bids: return the token and clear the flags, nothing else.
			if err := escrow.NewManager(st.Ledger).Out(ctx, cardID, auction.Seller); err != nil {
				return err
			}

			card, err := st.Cards.GetByID(ctx, cardID)
			if err != nil {
				return err
			}
			card.IsListed = false
			card.ListingPrice = nil
			card.LastUpdated = now
			if err := st.Cards.Update(ctx, card); err != nil {
				return err
			}

			if err := st.Auctions.Delete(ctx, cardID); err != nil {
				return err
			}
			return st.Audit.Log(ctx, domain.EventAuctionClosed, map[string]any{
				"card_id": cardID,
				"seller":  auction.Seller,
			})
		}

		if caller != *auction.CurrentBidder {
			return domain.ErrUnauthorized
		}

		mp, err := st.Marketplace.Get(ctx)
		if err != nil {
			return err
		}
		fee, sellerAmount := domain.SplitFee(*auction.CurrentBid, mp.FeeBps)

		settled := domain.Sale{
			ID:         uuid.NewString(),
			CardID:     cardID,
			Seller:     auction.Seller,
			Buyer:      *auction.CurrentBidder,
			Price:      *auction.CurrentBid,
			Fee:        fee,
			Kind:       domain.SaleKindAuction,
			ExecutedAt: now,
		}
		if err := settleSale(ctx, st, settled, sellerAmount, now); err != nil {
			return err
		}

		if err := st.Auctions.Delete(ctx, cardID); err != nil {
			return err
		}
		sale = &settled

		return st.Audit.Log(ctx, domain.EventAuctionSettled, map[string]any{
			"card_id": cardID,
			"seller":  settled.Seller,
			"winner":  settled.Buyer,
			"price":   settled.Price,
			"fee":     fee,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("auction: end for card %s: %w", cardID, err)
	}

	s.invalidate(ctx, cardID)
	event := domain.EventAuctionClosed
	var price uint64
	if sale != nil {
		event = domain.EventAuctionSettled
		price = sale.Price
	}
	publish(ctx, s.bus, s.logger, domain.ChannelAuction, domain.MarketEvent{
		Event:  event,
		CardID: cardID,
		Actor:  caller,
		Price:  price,
		At:     s.now(),
	})

	s.logger.InfoContext(ctx, "auction: ended",
		slog.String("card_id", cardID),
		slog.String("event", event),
	)
	return sale, nil
}

// ListActive returns auctions whose window is still open.
func (s *AuctionService) ListActive(ctx context.Context, opts domain.ListOpts) ([]domain.Auction, error) {
	var auctions []domain.Auction
	err := s.tx.InTx(ctx, func(st domain.Stores) error {
		var err error
		auctions, err = st.Auctions.ListActive(ctx, opts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("auction: list active: %w", err)
	}
	return auctions, nil
}

// PublishExpired scans for auctions past their deadline and announces them
// on the bus. Settlement stays caller-driven; the worker only signals so
// winners and sellers know to call EndAuction.
func (s *AuctionService) PublishExpired(ctx context.Context, limit int) (int, error) {
	var expired []domain.Auction
	err := s.tx.InTx(ctx, func(st domain.Stores) error {
		var err error
		expired, err = st.Auctions.ListEnded(ctx, s.now(), limit)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("auction: list expired: %w", err)
	}

	for _, a := range expired {
		publish(ctx, s.bus, s.logger, domain.ChannelAuction, domain.MarketEvent{
			Event:  domain.EventAuctionExpired,
			CardID: a.CardID,
			Actor:  a.Seller,
			At:     s.now(),
		})
	}
	return len(expired), nil
}

func (s *AuctionService) invalidate(ctx context.Context, cardID string) {
	if err := s.cache.Invalidate(ctx, cardID); err != nil {
		s.logger.WarnContext(ctx, "auction: cache invalidate failed",
			slog.String("card_id", cardID),
			slog.String("error", err.Error()),
		)
	}
}
