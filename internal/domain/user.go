package domain

import "time"

// MaxUserLevel is the account level cap.
const MaxUserLevel uint8 = 100

// UserStats is the per-identity aggregate record. CardsOwned never goes
// negative and Level is monotonically non-decreasing; both are enforced by
// the services that mutate the record. Battle counters are maintained by the
// battle collaborator through RecordBattleResult.
type UserStats struct {
	Owner        string    `json:"owner"`
	CardsOwned   uint64    `json:"cards_owned"`
	CardsMinted  uint64    `json:"cards_minted"`
	TotalSpent   uint64    `json:"total_spent"`
	TotalEarned  uint64    `json:"total_earned"`
	BattlesWon   uint32    `json:"battles_won"`
	BattlesLost  uint32    `json:"battles_lost"`
	Experience   uint64    `json:"experience"`
	Level        uint8     `json:"level"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}
