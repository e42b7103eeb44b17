package domain

import "time"

// Auction is a timed ascending-bid sale for a single card. While the auction
// row exists the card is held in escrow custody; the row is deleted once the
// auction settles or is closed with no bids.
type Auction struct {
	CardID        string    `json:"card_id"`
	Seller        string    `json:"seller"`
	StartingPrice uint64    `json:"starting_price"`
	CurrentBid    *uint64   `json:"current_bid,omitempty"`
	CurrentBidder *string   `json:"current_bidder,omitempty"`
	EndTime       time.Time `json:"end_time"`
	CreatedAt     time.Time `json:"created_at"`
}

// MinBid returns the smallest acceptable next bid: a 10% raise over the
// standing bid (integer division, so small bids may require only equality
// plus zero), or the starting price when no bid has been placed.
func (a *Auction) MinBid() uint64 {
	if a.CurrentBid != nil {
		return *a.CurrentBid + *a.CurrentBid/10
	}
	return a.StartingPrice
}

// Ended reports whether the auction's bidding window has closed.
func (a *Auction) Ended(now time.Time) bool {
	return !now.Before(a.EndTime)
}

// HasBid reports whether at least one bid has been recorded.
func (a *Auction) HasBid() bool {
	return a.CurrentBid != nil && a.CurrentBidder != nil
}
