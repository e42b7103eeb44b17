package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitFee(t *testing.T) {
	fee, seller := SplitFee(1000, 250)
	assert.Equal(t, uint64(25), fee)
	assert.Equal(t, uint64(975), seller)

	fee, seller = SplitFee(999, 250)
	assert.Equal(t, uint64(24), fee)
	assert.Equal(t, uint64(975), seller)

	fee, seller = SplitFee(1000, 0)
	assert.Equal(t, uint64(0), fee)
	assert.Equal(t, uint64(1000), seller)
}

func TestSplitFeeConservesPrice(t *testing.T) {
	prices := []uint64{1, 7, 99, 1000, 12345, 1 << 40}
	rates := []uint16{1, 25, 250, 999, MaxFeeBps}
	for _, p := range prices {
		for _, bps := range rates {
			fee, seller := SplitFee(p, bps)
			assert.Equal(t, p, fee+seller, "price %d bps %d", p, bps)
		}
	}
}

func TestSplitFeeTruncatesTowardZero(t *testing.T) {
	// 1 unit at 250 bps is 0.025 units of fee, truncated to zero.
	fee, seller := SplitFee(1, 250)
	assert.Equal(t, uint64(0), fee)
	assert.Equal(t, uint64(1), seller)
}
