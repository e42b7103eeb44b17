package domain

import "time"

// Listing is an active fixed-price offer. The record's existence is the
// active signal: it is created when a card is listed and deleted when the
// card is bought or the listing canceled, so no dangling inactive listings
// persist.
type Listing struct {
	Seller    string    `json:"seller"`
	CardID    string    `json:"card_id"`
	Price     uint64    `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}
