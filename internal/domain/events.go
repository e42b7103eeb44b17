package domain

import "time"

// Redis channels used for marketplace event fanout.
const (
	ChannelMarket  = "ch:market"
	ChannelAuction = "ch:auction"
	ChannelCards   = "ch:cards"
)

// Event names published on the signal bus and recorded in the audit log.
const (
	EventCardMinted      = "card_minted"
	EventCardTransferred = "card_transferred"
	EventCardLeveledUp   = "card_leveled_up"
	EventCardListed      = "card_listed"
	EventListingCanceled = "listing_canceled"
	EventSaleCompleted   = "sale_completed"
	EventAuctionCreated  = "auction_created"
	EventBidPlaced       = "bid_placed"
	EventAuctionSettled  = "auction_settled"
	EventAuctionExpired  = "auction_expired"
	EventAuctionClosed   = "auction_closed"
	EventChestOpened     = "chest_opened"
	EventBattleRecorded  = "battle_recorded"
)

// MarketEvent is the wire shape published on the signal bus channels.
type MarketEvent struct {
	Event  string         `json:"event"`
	CardID string         `json:"card_id,omitempty"`
	Actor  string         `json:"actor,omitempty"`
	Price  uint64         `json:"price,omitempty"`
	Detail map[string]any `json:"detail,omitempty"`
	At     time.Time      `json:"at"`
}
