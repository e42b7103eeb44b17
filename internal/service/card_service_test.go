package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pookielabs/cardmarket/internal/domain"
)

func newCards(e *testEnv) *CardService {
	return NewCardService(e.tx, memLocks{}, memCache{}, e.bus, testLogger(), e.now)
}

func TestMintCard(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	e.seedUser("0xalice")
	svc := newCards(e)

	card, err := svc.MintCard(ctx, MintParams{
		Owner:   "0xalice",
		Name:    "Ember Drake",
		Rarity:  domain.RarityLegendary,
		Element: domain.ElementFire,
	})
	require.NoError(t, err)
	assert.Equal(t, uint16(18), card.Attack)
	assert.Equal(t, uint16(18), card.Defense)
	assert.Equal(t, uint16(30), card.Health)
	assert.Equal(t, uint8(1), card.Level)
	assert.Equal(t, uint32(0), card.Experience)
	require.NotNil(t, card.SpecialAbility)
	assert.Equal(t, "Basic Attack", *card.SpecialAbility)

	assert.Equal(t, "0xalice", e.db.holders[card.ID])
	stats := e.db.users["0xalice"]
	assert.Equal(t, uint64(1), stats.CardsOwned)
	assert.Equal(t, uint64(1), stats.CardsMinted)
}

func TestMintCardValidation(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	e.seedUser("0xalice")
	svc := newCards(e)

	_, err := svc.MintCard(ctx, MintParams{Owner: "0xalice", Name: "", Rarity: domain.RarityCommon, Element: domain.ElementFire})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.MintCard(ctx, MintParams{Owner: "0xalice", Name: "x", Rarity: "divine", Element: domain.ElementFire})
	assert.ErrorIs(t, err, domain.ErrInvalidRarity)

	_, err = svc.MintCard(ctx, MintParams{Owner: "0xalice", Name: "x", Rarity: domain.RarityCommon, Element: "void"})
	assert.ErrorIs(t, err, domain.ErrInvalidElement)
}

func TestMintCardSupplyCap(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	e.seedUser("0xalice")
	max := uint64(1)
	e.db.collections["col-1"] = domain.Collection{
		ID: "col-1", Authority: "0xadmin", Name: "Genesis",
		MaxSupply: &max, IsActive: true,
	}
	svc := newCards(e)

	p := MintParams{Owner: "0xalice", Name: "x", Rarity: domain.RarityCommon, Element: domain.ElementFire, CollectionID: "col-1"}
	_, err := svc.MintCard(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), e.db.collections["col-1"].TotalCards)

	_, err = svc.MintCard(ctx, p)
	assert.ErrorIs(t, err, domain.ErrMaxSupplyReached)
	// Failed mint leaves no trace.
	assert.Equal(t, uint64(1), e.db.users["0xalice"].CardsMinted)
}

func TestTransferCard(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	e.seedUser("0xalice")
	e.seedUser("0xbob")
	e.seedCard("card-1", "0xalice", domain.RarityCommon)
	svc := newCards(e)

	require.NoError(t, svc.TransferCard(ctx, "0xalice", "0xbob", "card-1"))

	assert.Equal(t, "0xbob", e.db.cards["card-1"].Owner)
	assert.Equal(t, "0xbob", e.db.holders["card-1"])
	assert.Equal(t, uint64(0), e.db.users["0xalice"].CardsOwned)
	assert.Equal(t, uint64(1), e.db.users["0xbob"].CardsOwned)
}

func TestTransferCardGuards(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	e.seedUser("0xalice")
	e.seedUser("0xbob")
	c := e.seedCard("card-1", "0xalice", domain.RarityCommon)
	svc := newCards(e)

	err := svc.TransferCard(ctx, "0xbob", "0xalice", "card-1")
	assert.ErrorIs(t, err, domain.ErrNotCardOwner)

	c.IsListed = true
	e.db.cards[c.ID] = c
	err = svc.TransferCard(ctx, "0xalice", "0xbob", "card-1")
	assert.ErrorIs(t, err, domain.ErrAlreadyListed)
}

func TestUpdateCardStats(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv()
	e.seedMarketplace("0xadmin", 250)
	e.seedUser("0xalice")
	e.seedCard("card-1", "0xalice", domain.RarityCommon)
	svc := newCards(e)

	_, err := svc.UpdateCardStats(ctx, "0xalice", "card-1", StatsPatch{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	attack := uint16(99)
	ability := "Flame Burst"
	card, err := svc.UpdateCardStats(ctx, "0xadmin", "card-1", StatsPatch{
		Attack:         &attack,
		SpecialAbility: &ability,
	})
	require.NoError(t, err)
	assert.Equal(t, uint16(99), card.Attack)
	assert.Equal(t, uint16(3), card.Defense) // untouched
	assert.Equal(t, "Flame Burst", *card.SpecialAbility)
}
