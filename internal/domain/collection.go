package domain

import "time"

// Collection text-length bounds enforced at creation.
const (
	MaxCollectionNameLen = 50
	MaxDescriptionLen    = 200
)

// Collection groups minted cards under an authority with an optional
// supply cap. TotalCards counts mints attributed to the collection and
// never decreases on transfer or sale.
type Collection struct {
	ID          string    `json:"id"`
	Authority   string    `json:"authority"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	TotalCards  uint64    `json:"total_cards"`
	MaxSupply   *uint64   `json:"max_supply,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Full reports whether the collection has reached its supply cap.
func (c *Collection) Full() bool {
	return c.MaxSupply != nil && c.TotalCards >= *c.MaxSupply
}
