package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRarityTable(t *testing.T) {
	cases := []struct {
		rarity   Rarity
		maxLevel uint8
		attack   uint16
		defense  uint16
		health   uint16
		gain     uint16
	}{
		{RarityCommon, 10, 3, 3, 10, 1},
		{RarityUncommon, 15, 5, 5, 15, 2},
		{RarityRare, 20, 8, 8, 20, 3},
		{RarityEpic, 25, 12, 12, 25, 4},
		{RarityLegendary, 30, 18, 18, 30, 5},
		{RarityMythic, 40, 25, 25, 40, 7},
	}
	for _, tc := range cases {
		t.Run(string(tc.rarity), func(t *testing.T) {
			assert.True(t, tc.rarity.Valid())
			assert.Equal(t, tc.maxLevel, tc.rarity.MaxLevel())
			a, d, h := tc.rarity.BaseStats()
			assert.Equal(t, tc.attack, a)
			assert.Equal(t, tc.defense, d)
			assert.Equal(t, tc.health, h)
			assert.Equal(t, tc.gain, tc.rarity.StatGain())
		})
	}
	assert.False(t, Rarity("divine").Valid())
}

func TestMythicStatsFitAtCap(t *testing.T) {
	// A Mythic card leveled from 1 to 40 gains stats 39 times.
	a, _, h := RarityMythic.BaseStats()
	gain := RarityMythic.StatGain()
	levels := uint16(RarityMythic.MaxLevel() - 1)
	assert.Equal(t, uint16(298), a+gain*levels)
	assert.Equal(t, uint16(586), h+2*gain*levels)
}

func TestRequiredExperience(t *testing.T) {
	want := map[uint8]uint32{
		1: 100, 2: 250, 3: 450, 4: 700, 5: 1000,
		6: 1400, 7: 1900, 8: 2500, 9: 3200, 10: 4000,
		11: 4800, 12: 5600, 20: 12000, 39: 27200,
	}
	for level, exp := range want {
		assert.Equal(t, exp, RequiredExperience(level), "level %d", level)
	}
}

func TestRequiredExperienceStrictlyIncreasing(t *testing.T) {
	prev := uint32(0)
	for level := uint8(1); level < 40; level++ {
		cur := RequiredExperience(level)
		assert.Greater(t, cur, prev, "level %d", level)
		prev = cur
	}
}

func TestUserRequiredExperience(t *testing.T) {
	want := map[uint8]uint64{
		1: 0, 2: 1000, 3: 2500, 4: 5000, 5: 8500,
		6: 13000, 7: 18500, 8: 25000, 9: 32500, 10: 41000,
		11: 51000, 12: 61000, 50: 441000, 99: 931000,
	}
	for level, exp := range want {
		assert.Equal(t, exp, UserRequiredExperience(level), "level %d", level)
	}
}

func TestElementCycle(t *testing.T) {
	adv := map[Element]Element{
		ElementFire:  ElementEarth,
		ElementWater: ElementFire,
		ElementEarth: ElementAir,
		ElementAir:   ElementWater,
		ElementLight: ElementDark,
		ElementDark:  ElementLight,
	}
	for e, want := range adv {
		got, ok := e.AdvantageAgainst()
		assert.True(t, ok, "%s", e)
		assert.Equal(t, want, got, "%s", e)
	}

	dis := map[Element]Element{
		ElementFire:  ElementWater,
		ElementWater: ElementAir,
		ElementEarth: ElementFire,
		ElementAir:   ElementEarth,
		ElementLight: ElementDark,
		ElementDark:  ElementLight,
	}
	for e, want := range dis {
		got, ok := e.DisadvantageAgainst()
		assert.True(t, ok, "%s", e)
		assert.Equal(t, want, got, "%s", e)
	}

	_, ok := ElementNeutral.AdvantageAgainst()
	assert.False(t, ok)
	_, ok = ElementNeutral.DisadvantageAgainst()
	assert.False(t, ok)
	assert.True(t, ElementNeutral.Valid())
	assert.False(t, Element("void").Valid())
}
