package domain

import "context"

// TokenLedger tracks which account holds each card token. It is the custody
// primitive underneath escrow: listings and auctions move the token into a
// custody account and settlement moves it out, all within the surrounding
// transaction.
type TokenLedger interface {
	CreateUnit(ctx context.Context, tokenID, account string) error
	Holder(ctx context.Context, tokenID string) (string, error)
	// TransferUnit moves the token from one account to another. It fails
	// with ErrUnauthorized when from is not the current holder.
	TransferUnit(ctx context.Context, tokenID, from, to string) error
}
