package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeLevel(t *testing.T) {
	tests := []struct {
		settled, size, want int
	}{
		{0, 500, 1},
		{10, 500, 1},
		{499, 500, 1},
		{500, 500, 2},
		{12500, 500, 26},
		{999999, 500, 2000},
		{-20, 500, 1},
		{1000, 0, 3},
		{1000, -7, 3},
		{30, 10, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ComputeLevel(tt.settled, tt.size), "ComputeLevel(%d, %d)", tt.settled, tt.size)
	}
}

func TestComputeTier_Defaults(t *testing.T) {
	tests := []struct {
		score int
		want  Tier
	}{
		{0, TierBronze},
		{4999, TierBronze},
		{5000, TierSilver},
		{24999, TierSilver},
		{25000, TierGold},
		{99999, TierGold},
		{100000, TierElite},
		{999999, TierElite},
		{-1, TierBronze},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ComputeTier(tt.score, nil), "ComputeTier(%d)", tt.score)
	}
}

func TestComputeTier_CustomThresholds(t *testing.T) {
	th := []TierThreshold{
		{Tier: TierBronze, Min: 0},
		{Tier: TierGold, Min: 100},
	}
	assert.Equal(t, TierBronze, ComputeTier(99, th))
	assert.Equal(t, TierGold, ComputeTier(100, th))
}

func TestLevelProgress(t *testing.T) {
	assert.Equal(t, 0, LevelProgress(0, 500))
	assert.Equal(t, 50, LevelProgress(250, 500))
	assert.Equal(t, 99, LevelProgress(999, 500))
	assert.Equal(t, 0, LevelProgress(12500, 500))
	assert.Equal(t, 90, LevelProgress(12950, 0))
	assert.Equal(t, 0, LevelProgress(-3, 500))
}

func TestValidateTierThresholds(t *testing.T) {
	assert.NoError(t, ValidateTierThresholds(DefaultTierThresholds()))

	assert.Error(t, ValidateTierThresholds(nil))
	assert.Error(t, ValidateTierThresholds([]TierThreshold{{Tier: TierBronze, Min: 10}}))
	assert.Error(t, ValidateTierThresholds([]TierThreshold{
		{Tier: TierBronze, Min: 0},
		{Tier: TierSilver, Min: 0},
	}))
	assert.Error(t, ValidateTierThresholds([]TierThreshold{
		{Tier: TierBronze, Min: 0},
		{Tier: TierBronze, Min: 10},
	}))
}

func TestTierNames(t *testing.T) {
	assert.Equal(t, "SILVER", TierSilver.String())
	assert.Equal(t, "TIER(9)", Tier(9).String())

	tier, ok := ParseTier(" elite ")
	assert.True(t, ok)
	assert.Equal(t, TierElite, tier)

	_, ok = ParseTier("platinum")
	assert.False(t, ok)
}

func TestTier_TextRoundTrip(t *testing.T) {
	var tier Tier
	assert.NoError(t, tier.UnmarshalText([]byte("gold")))
	assert.Equal(t, TierGold, tier)

	text, err := TierElite.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "ELITE", string(text))

	assert.Error(t, tier.UnmarshalText([]byte("PLATINUM")))
}
