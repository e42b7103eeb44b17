package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrRateLimited   = errors.New("rate limited")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrLockHeld      = errors.New("lock already held")
	ErrContextDone   = errors.New("context cancelled")

	ErrNotCardOwner  = errors.New("caller does not own the card")
	ErrAlreadyListed = errors.New("card already listed or in auction")
	ErrNotListed     = errors.New("card is not listed")

	ErrAuctionNotActive = errors.New("auction is not active")
	ErrAuctionExpired   = errors.New("auction has expired")
	ErrAuctionNotEnded  = errors.New("auction has not ended yet")
	ErrBidTooLow        = errors.New("bid below minimum")

	ErrInvalidPrice    = errors.New("price must be greater than zero")
	ErrInvalidDuration = errors.New("auction duration out of range")
	ErrInvalidFee      = errors.New("fee exceeds maximum basis points")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrInvalidName     = errors.New("name is empty or too long")
	ErrInvalidRarity   = errors.New("unknown rarity")
	ErrInvalidElement  = errors.New("unknown element")
	ErrInvalidIdentity = errors.New("invalid identity address")

	ErrMaxLevelReached        = errors.New("card is at maximum level")
	ErrInsufficientExperience = errors.New("not enough experience to level up")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrMaxSupplyReached       = errors.New("collection supply cap reached")
	ErrCollectionInactive     = errors.New("collection is not active")
)
