package domain

import "time"

// ChestKind identifies a purchasable chest tier. Better chests shift the
// rarity odds toward the higher end of the table.
type ChestKind string

const (
	ChestCommon    ChestKind = "common"
	ChestRare      ChestKind = "rare"
	ChestLegendary ChestKind = "legendary"
)

// Valid reports whether k is a known chest kind.
func (k ChestKind) Valid() bool {
	switch k {
	case ChestCommon, ChestRare, ChestLegendary:
		return true
	}
	return false
}

// chestOdds maps a chest kind to its cumulative rarity distribution over
// common, rare and legendary pulls. Each row sums to 1.
var chestOdds = map[ChestKind][3]float64{
	ChestCommon:    {0.85, 0.14, 0.01},
	ChestRare:      {0.50, 0.45, 0.05},
	ChestLegendary: {0.20, 0.50, 0.30},
}

// RollRarity resolves a uniform roll in [0,1) against the chest's odds
// table and returns the rarity tier to mint.
func (k ChestKind) RollRarity(roll float64) Rarity {
	odds := chestOdds[k]
	switch {
	case roll < odds[0]:
		return RarityCommon
	case roll < odds[0]+odds[1]:
		return RarityRare
	default:
		return RarityLegendary
	}
}

// ChestGrant records a chest opening and the card it produced, kept for
// audit and drop-rate monitoring.
type ChestGrant struct {
	ID       string    `json:"id"`
	Owner    string    `json:"owner"`
	Kind     ChestKind `json:"kind"`
	CardID   string    `json:"card_id"`
	Rarity   Rarity    `json:"rarity"`
	Cost     uint64    `json:"cost"`
	OpenedAt time.Time `json:"opened_at"`
}
