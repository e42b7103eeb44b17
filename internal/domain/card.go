// Package domain defines the entities, enums, and interfaces of the card
// marketplace: cards, user stats, listings, auctions, the marketplace
// singleton, and the store/cache/ledger contracts their operations run
// against.
package domain

import "time"

// MaxCardNameLen bounds card names at mint time.
const MaxCardNameLen = 50

// Rarity ranks a card from Common to Mythic. Rarity determines the level cap,
// base combat stats, and per-level stat growth.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
	RarityMythic    Rarity = "mythic"
)

// rarityRow holds the per-rarity tuning values. Kept as pure data next to the
// type so the tables stay in one place.
type rarityRow struct {
	maxLevel    uint8
	baseAttack  uint16
	baseDefense uint16
	baseHealth  uint16
	statGain    uint16
}

var rarityTable = map[Rarity]rarityRow{
	RarityCommon:    {maxLevel: 10, baseAttack: 3, baseDefense: 3, baseHealth: 10, statGain: 1},
	RarityUncommon:  {maxLevel: 15, baseAttack: 5, baseDefense: 5, baseHealth: 15, statGain: 2},
	RarityRare:      {maxLevel: 20, baseAttack: 8, baseDefense: 8, baseHealth: 20, statGain: 3},
	RarityEpic:      {maxLevel: 25, baseAttack: 12, baseDefense: 12, baseHealth: 25, statGain: 4},
	RarityLegendary: {maxLevel: 30, baseAttack: 18, baseDefense: 18, baseHealth: 30, statGain: 5},
	RarityMythic:    {maxLevel: 40, baseAttack: 25, baseDefense: 25, baseHealth: 40, statGain: 7},
}

// Valid reports whether r is one of the six known rarities.
func (r Rarity) Valid() bool {
	_, ok := rarityTable[r]
	return ok
}

// MaxLevel returns the level cap for cards of this rarity.
func (r Rarity) MaxLevel() uint8 {
	return rarityTable[r].maxLevel
}

// BaseStats returns the attack, defense, and health a freshly minted card of
// this rarity starts with.
func (r Rarity) BaseStats() (attack, defense, health uint16) {
	row := rarityTable[r]
	return row.baseAttack, row.baseDefense, row.baseHealth
}

// StatGain returns the flat attack/defense increase applied on each level-up.
// Health grows by twice this amount.
func (r Rarity) StatGain() uint16 {
	return rarityTable[r].statGain
}

// Element is a card's elemental affinity. Elements form a rock-paper-scissors
// cycle consumed by battle collaborators; the marketplace itself only stores
// the value.
type Element string

const (
	ElementFire    Element = "fire"
	ElementWater   Element = "water"
	ElementEarth   Element = "earth"
	ElementAir     Element = "air"
	ElementLight   Element = "light"
	ElementDark    Element = "dark"
	ElementNeutral Element = "neutral"
)

var elementAdvantage = map[Element]Element{
	ElementFire:  ElementEarth,
	ElementWater: ElementFire,
	ElementEarth: ElementAir,
	ElementAir:   ElementWater,
	ElementLight: ElementDark,
	ElementDark:  ElementLight,
}

var elementDisadvantage = map[Element]Element{
	ElementFire:  ElementWater,
	ElementWater: ElementAir,
	ElementEarth: ElementFire,
	ElementAir:   ElementEarth,
	ElementLight: ElementDark,
	ElementDark:  ElementLight,
}

var validElements = map[Element]bool{
	ElementFire: true, ElementWater: true, ElementEarth: true,
	ElementAir: true, ElementLight: true, ElementDark: true,
	ElementNeutral: true,
}

// Valid reports whether e is one of the seven known elements.
func (e Element) Valid() bool {
	return validElements[e]
}

// AdvantageAgainst returns the element e is strong against. Neutral has no
// advantage, signalled by ok=false.
func (e Element) AdvantageAgainst() (Element, bool) {
	target, ok := elementAdvantage[e]
	return target, ok
}

// DisadvantageAgainst returns the element e is weak against. Neutral has no
// disadvantage, signalled by ok=false.
func (e Element) DisadvantageAgainst() (Element, bool) {
	target, ok := elementDisadvantage[e]
	return target, ok
}

// Card is a uniquely identified collectible. The ID is assigned at mint time
// and never changes; Owner changes only through a completed transfer,
// purchase, or auction settlement.
type Card struct {
	ID             string    `json:"id"`
	Owner          string    `json:"owner"`
	Name           string    `json:"name"`
	Rarity         Rarity    `json:"rarity"`
	Element        Element   `json:"element"`
	Attack         uint16    `json:"attack"`
	Defense        uint16    `json:"defense"`
	Health         uint16    `json:"health"`
	SpecialAbility *string   `json:"special_ability,omitempty"`
	Level          uint8     `json:"level"`
	Experience     uint32    `json:"experience"`
	CreatedAt      time.Time `json:"created_at"`
	LastUpdated    time.Time `json:"last_updated"`
	IsListed       bool      `json:"is_listed"`
	ListingPrice   *uint64   `json:"listing_price,omitempty"`
}

// RequiredExperience returns the card experience consumed by advancing from
// the given level to the next. The step function is strictly increasing:
// 100, 250, 450, 700, 1000, 1400, 1900, 2500, 3200, 4000, then +800 per
// level beyond 10.
func RequiredExperience(level uint8) uint32 {
	steps := [...]uint32{100, 250, 450, 700, 1000, 1400, 1900, 2500, 3200, 4000}
	if level >= 1 && int(level) <= len(steps) {
		return steps[level-1]
	}
	return 4000 + (uint32(level)-10)*800
}

// UserRequiredExperience returns the account experience threshold for
// advancing from the given account level to the next: 0, 1000, 2500, 5000,
// 8500, 13000, 18500, 25000, 32500, 41000, then +10000 per level beyond 10.
func UserRequiredExperience(level uint8) uint64 {
	steps := [...]uint64{0, 1000, 2500, 5000, 8500, 13000, 18500, 25000, 32500, 41000}
	if level >= 1 && int(level) <= len(steps) {
		return steps[level-1]
	}
	return 41000 + (uint64(level)-10)*10000
}
