package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pookielabs/cardmarket/internal/domain"
	"github.com/pookielabs/cardmarket/internal/escrow"
)

func newMarket(e *testEnv) *MarketService {
	return NewMarketService(e.tx, memLocks{}, memCache{}, e.bus, testLogger(), e.now)
}

func TestInitializeMarketplace(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	svc := newMarket(e)

	m, err := svc.InitializeMarketplace(ctx, "0xadmin", 250)
	require.NoError(t, err)
	assert.Equal(t, "0xadmin", m.Authority)
	assert.Equal(t, uint16(250), m.FeeBps)

	_, err = svc.InitializeMarketplace(ctx, "0xadmin", 250)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = svc.InitializeMarketplace(ctx, "0xadmin", 1001)
	assert.ErrorIs(t, err, domain.ErrInvalidFee)
}

func TestBuyScenario(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	e.seedMarketplace("0xadmin", 250)
	e.seedUser("0xseller")
	e.seedUser("0xbuyer")
	e.seedCard("card-1", "0xseller", domain.RarityCommon)

	svc := newMarket(e)

	listing, err := svc.ListCard(ctx, "0xseller", "card-1", 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), listing.Price)
	assert.Equal(t, escrow.CustodyAccount("card-1"), e.db.holders["card-1"])
	assert.True(t, e.db.cards["card-1"].IsListed)

	sale, err := svc.BuyCard(ctx, "0xbuyer", "card-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(25), sale.Fee)
	assert.Equal(t, uint64(1000), sale.Price)
	assert.Equal(t, domain.SaleKindListing, sale.Kind)

	card := e.db.cards["card-1"]
	assert.Equal(t, "0xbuyer", card.Owner)
	assert.False(t, card.IsListed)
	assert.Nil(t, card.ListingPrice)
	assert.Equal(t, "0xbuyer", e.db.holders["card-1"])

	assert.Equal(t, uint64(1000), e.db.marketplace.TotalVolume)
	assert.Equal(t, uint64(1), e.db.marketplace.TotalSales)

	seller := e.db.users["0xseller"]
	assert.Equal(t, uint64(0), seller.CardsOwned)
	assert.Equal(t, uint64(975), seller.TotalEarned)

	buyer := e.db.users["0xbuyer"]
	assert.Equal(t, uint64(1), buyer.CardsOwned)
	assert.Equal(t, uint64(1000), buyer.TotalSpent)

	_, gone := e.db.listings["card-1"]
	assert.False(t, gone)
	require.Len(t, e.db.sales, 1)
}

func TestListValidation(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	e.seedMarketplace("0xadmin", 250)
	e.seedUser("0xseller")
	e.seedCard("card-1", "0xseller", domain.RarityCommon)
	svc := newMarket(e)

	_, err := svc.ListCard(ctx, "0xseller", "card-1", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = svc.ListCard(ctx, "0xmallory", "card-1", 100)
	assert.ErrorIs(t, err, domain.ErrNotCardOwner)

	_, err = svc.ListCard(ctx, "0xseller", "card-1", 100)
	require.NoError(t, err)

	_, err = svc.ListCard(ctx, "0xseller", "card-1", 100)
	assert.ErrorIs(t, err, domain.ErrAlreadyListed)
}

func TestBuyUnlistedCard(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	e.seedMarketplace("0xadmin", 250)
	e.seedUser("0xbuyer")
	e.seedUser("0xseller")
	e.seedCard("card-1", "0xseller", domain.RarityCommon)

	_, err := newMarket(e).BuyCard(ctx, "0xbuyer", "card-1")
	assert.ErrorIs(t, err, domain.ErrNotListed)
}

func TestListCancelRoundTrip(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	e.seedMarketplace("0xadmin", 250)
	e.seedUser("0xseller")
	e.seedCard("card-1", "0xseller", domain.RarityCommon)
	before := e.db.users["0xseller"]

	svc := newMarket(e)
	_, err := svc.ListCard(ctx, "0xseller", "card-1", 500)
	require.NoError(t, err)

	err = svc.CancelListing(ctx, "0xmallory", "card-1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, svc.CancelListing(ctx, "0xseller", "card-1"))

	// Round trip: owner, custody, flags, stats, and marketplace counters
	// all restored.
	card := e.db.cards["card-1"]
	assert.Equal(t, "0xseller", card.Owner)
	assert.False(t, card.IsListed)
	assert.Nil(t, card.ListingPrice)
	assert.Equal(t, "0xseller", e.db.holders["card-1"])
	assert.Equal(t, before.CardsOwned, e.db.users["0xseller"].CardsOwned)
	assert.Equal(t, before.TotalEarned, e.db.users["0xseller"].TotalEarned)
	assert.Equal(t, uint64(0), e.db.marketplace.TotalVolume)
	assert.Equal(t, uint64(0), e.db.marketplace.TotalSales)
	assert.Empty(t, e.db.listings)

	err = svc.CancelListing(ctx, "0xseller", "card-1")
	assert.ErrorIs(t, err, domain.ErrNotListed)
}

func TestFeeConservation(t *testing.T) {
	ctx := context.Background()
	for _, feeBps := range []uint16{0, 1, 250, 999, domain.MaxFeeBps} {
		e := newTestEnv()
		e.seedMarketplace("0xadmin", feeBps)
		e.seedUser("0xseller")
		e.seedUser("0xbuyer")
		e.seedCard("card-1", "0xseller", domain.RarityRare)

		svc := newMarket(e)
		_, err := svc.ListCard(ctx, "0xseller", "card-1", 12345)
		require.NoError(t, err)
		sale, err := svc.BuyCard(ctx, "0xbuyer", "card-1")
		require.NoError(t, err)

		sellerAmount := e.db.users["0xseller"].TotalEarned
		assert.Equal(t, sale.Price, sale.Fee+sellerAmount, "fee_bps %d", feeBps)
	}
}
