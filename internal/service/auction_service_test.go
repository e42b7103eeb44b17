package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pookielabs/cardmarket/internal/domain"
	"github.com/pookielabs/cardmarket/internal/escrow"
)

func newAuction(e *testEnv) *AuctionService {
	return NewAuctionService(e.tx, memLocks{}, memCache{}, e.bus, testLogger(), e.now)
}

func auctionFixture(e *testEnv) {
	e.seedMarketplace("0xadmin", 250)
	e.seedUser("0xseller")
	e.seedUser("0xbidder")
	e.seedCard("card-1", "0xseller", domain.RarityCommon)
}

func TestAuctionBidOrdering(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	auctionFixture(e)
	svc := newAuction(e)

	_, err := svc.CreateAuction(ctx, "0xseller", "card-1", 100, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, escrow.CustodyAccount("card-1"), e.db.holders["card-1"])
	assert.True(t, e.db.cards["card-1"].IsListed)

	_, err = svc.PlaceBid(ctx, "0xbidder", "card-1", 90)
	assert.ErrorIs(t, err, domain.ErrBidTooLow)
	assert.Nil(t, e.db.auctions["card-1"].CurrentBid)

	a, err := svc.PlaceBid(ctx, "0xbidder", "card-1", 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), *a.CurrentBid)

	// Minimum raise is 100 + 100/10 = 110.
	_, err = svc.PlaceBid(ctx, "0xbidder", "card-1", 105)
	assert.ErrorIs(t, err, domain.ErrBidTooLow)
	assert.Equal(t, uint64(100), *e.db.auctions["card-1"].CurrentBid)

	a, err = svc.PlaceBid(ctx, "0xbidder", "card-1", 110)
	require.NoError(t, err)
	assert.Equal(t, uint64(110), *a.CurrentBid)
	assert.Equal(t, "0xbidder", *a.CurrentBidder)
}

func TestAuctionSettlementWithWinner(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	auctionFixture(e)
	svc := newAuction(e)

	_, err := svc.CreateAuction(ctx, "0xseller", "card-1", 100, time.Hour)
	require.NoError(t, err)
	_, err = svc.PlaceBid(ctx, "0xbidder", "card-1", 110)
	require.NoError(t, err)

	// Before the deadline settlement is refused.
	_, err = svc.EndAuction(ctx, "0xbidder", "card-1")
	assert.ErrorIs(t, err, domain.ErrAuctionNotEnded)

	e.advance(time.Hour)

	// Only the recorded bidder can settle a won auction.
	_, err = svc.EndAuction(ctx, "0xmallory", "card-1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	sale, err := svc.EndAuction(ctx, "0xbidder", "card-1")
	require.NoError(t, err)
	require.NotNil(t, sale)
	assert.Equal(t, uint64(110), sale.Price)
	assert.Equal(t, uint64(2), sale.Fee) // 110 * 250 / 10000 = 2
	assert.Equal(t, domain.SaleKindAuction, sale.Kind)

	card := e.db.cards["card-1"]
	assert.Equal(t, "0xbidder", card.Owner)
	assert.False(t, card.IsListed)
	assert.Equal(t, "0xbidder", e.db.holders["card-1"])

	assert.Equal(t, uint64(110), e.db.marketplace.TotalVolume)
	assert.Equal(t, uint64(1), e.db.marketplace.TotalSales)
	assert.Equal(t, uint64(108), e.db.users["0xseller"].TotalEarned)
	assert.Equal(t, uint64(110), e.db.users["0xbidder"].TotalSpent)
	assert.Empty(t, e.db.auctions)
}

func TestAuctionSettlementNoBids(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	auctionFixture(e)
	svc := newAuction(e)

	_, err := svc.CreateAuction(ctx, "0xseller", "card-1", 100, time.Hour)
	require.NoError(t, err)

	e.advance(2 * time.Hour)

	sale, err := svc.EndAuction(ctx, "0xanyone", "card-1")
	require.NoError(t, err)
	assert.Nil(t, sale)

	card := e.db.cards["card-1"]
	assert.Equal(t, "0xseller", card.Owner)
	assert.False(t, card.IsListed)
	assert.Nil(t, card.ListingPrice)
	assert.Equal(t, "0xseller", e.db.holders["card-1"])

	assert.Equal(t, uint64(0), e.db.marketplace.TotalVolume)
	assert.Equal(t, uint64(0), e.db.marketplace.TotalSales)
	assert.Empty(t, e.db.auctions)
	assert.Empty(t, e.db.sales)
}

func TestBidAfterDeadlineRejected(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	auctionFixture(e)
	svc := newAuction(e)

	_, err := svc.CreateAuction(ctx, "0xseller", "card-1", 100, time.Hour)
	require.NoError(t, err)

	e.advance(time.Hour)

	_, err = svc.PlaceBid(ctx, "0xbidder", "card-1", 200)
	assert.ErrorIs(t, err, domain.ErrAuctionExpired)
}

func TestCreateAuctionValidation(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	auctionFixture(e)
	svc := newAuction(e)

	_, err := svc.CreateAuction(ctx, "0xseller", "card-1", 0, time.Hour)
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = svc.CreateAuction(ctx, "0xseller", "card-1", 100, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidDuration)

	_, err = svc.CreateAuction(ctx, "0xmallory", "card-1", 100, time.Hour)
	assert.ErrorIs(t, err, domain.ErrNotCardOwner)

	_, err = svc.CreateAuction(ctx, "0xseller", "card-1", 100, time.Hour)
	require.NoError(t, err)

	_, err = svc.CreateAuction(ctx, "0xseller", "card-1", 100, time.Hour)
	assert.ErrorIs(t, err, domain.ErrAlreadyListed)

	_, err = svc.PlaceBid(ctx, "0xbidder", "card-2", 100)
	assert.ErrorIs(t, err, domain.ErrAuctionNotActive)
}

func TestPublishExpired(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	auctionFixture(e)
	e.seedCard("card-2", "0xseller", domain.RarityCommon)
	svc := newAuction(e)

	_, err := svc.CreateAuction(ctx, "0xseller", "card-1", 100, time.Hour)
	require.NoError(t, err)
	_, err = svc.CreateAuction(ctx, "0xseller", "card-2", 100, 3*time.Hour)
	require.NoError(t, err)

	e.advance(2 * time.Hour)

	n, err := svc.PublishExpired(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
