package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMinBidNoBids(t *testing.T) {
	a := Auction{StartingPrice: 500}
	assert.Equal(t, uint64(500), a.MinBid())
	assert.False(t, a.HasBid())
}

func TestMinBidTenPercentRaise(t *testing.T) {
	bid := uint64(1000)
	bidder := "0xbidder"
	a := Auction{StartingPrice: 500, CurrentBid: &bid, CurrentBidder: &bidder}
	assert.Equal(t, uint64(1100), a.MinBid())
	assert.True(t, a.HasBid())

	// Integer division: raises below 10 units truncate.
	small := uint64(9)
	a.CurrentBid = &small
	assert.Equal(t, uint64(9), a.MinBid())
}

func TestAuctionEnded(t *testing.T) {
	end := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := Auction{EndTime: end}
	assert.False(t, a.Ended(end.Add(-time.Second)))
	assert.True(t, a.Ended(end))
	assert.True(t, a.Ended(end.Add(time.Second)))
}
