package domain

import "time"

// MaxFeeBps caps the marketplace fee rate at 10%.
const MaxFeeBps uint16 = 1000

// Marketplace is the process-wide singleton record. It is created once by
// the authority and mutated only by completed sales and auction settlements
// (volume and sales counters).
type Marketplace struct {
	Authority   string    `json:"authority"`
	FeeBps      uint16    `json:"fee_bps"`
	TotalVolume uint64    `json:"total_volume"`
	TotalSales  uint64    `json:"total_sales"`
	CreatedAt   time.Time `json:"created_at"`
}

// SplitFee computes the marketplace cut and the seller proceeds for a sale at
// the given price. Division truncates toward zero, and fee + sellerAmount
// always equals price exactly. The fee is retained by the marketplace
// authority implicitly; only the seller amount is credited onward.
func SplitFee(price uint64, feeBps uint16) (fee, sellerAmount uint64) {
	fee = price * uint64(feeBps) / 10000
	return fee, price - fee
}

// SaleKind distinguishes how a completed sale was executed.
type SaleKind string

const (
	SaleKindListing SaleKind = "listing"
	SaleKindAuction SaleKind = "auction"
)

// Sale is an immutable record of one completed fixed-price purchase or
// auction settlement.
type Sale struct {
	ID         string    `json:"id"`
	CardID     string    `json:"card_id"`
	Seller     string    `json:"seller"`
	Buyer      string    `json:"buyer"`
	Price      uint64    `json:"price"`
	Fee        uint64    `json:"fee"`
	Kind       SaleKind  `json:"kind"`
	ExecutedAt time.Time `json:"executed_at"`
}
