package progression

import (
	"fmt"
	"strings"
)

// DefaultLevelSize is the XP width of one level.
const DefaultLevelSize = 500

// DefaultVerificationBonus is the reputation granted on first verification.
const DefaultVerificationBonus = 100

// Tier is a coarse standing bracket.
type Tier uint8

const (
	TierBronze Tier = iota
	TierSilver
	TierGold
	TierElite
)

var tierNames = [...]string{"BRONZE", "SILVER", "GOLD", "ELITE"}

func (t Tier) String() string {
	if int(t) < len(tierNames) {
		return tierNames[t]
	}
	return fmt.Sprintf("TIER(%d)", uint8(t))
}

// ParseTier resolves a tier name, case-insensitively.
func ParseTier(name string) (Tier, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, n := range tierNames {
		if n == name {
			return Tier(i), true
		}
	}
	return TierBronze, false
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(text []byte) error {
	tier, ok := ParseTier(string(text))
	if !ok {
		return fmt.Errorf("unknown tier %q", text)
	}
	*t = tier
	return nil
}

// TierThreshold is the minimum score for a tier.
type TierThreshold struct {
	Tier Tier
	Min  int
}

// DefaultTierThresholds returns BRONZE 0, SILVER 5000, GOLD 25000, ELITE 100000.
func DefaultTierThresholds() []TierThreshold {
	return []TierThreshold{
		{Tier: TierBronze, Min: 0},
		{Tier: TierSilver, Min: 5000},
		{Tier: TierGold, Min: 25000},
		{Tier: TierElite, Min: 100000},
	}
}

// ComputeLevel returns settled/levelSize + 1. A non-positive levelSize
// falls back to DefaultLevelSize; negative XP is treated as zero.
func ComputeLevel(settled, levelSize int) int {
	if levelSize <= 0 {
		levelSize = DefaultLevelSize
	}
	if settled < 0 {
		settled = 0
	}
	return settled/levelSize + 1
}

// ComputeTier returns the highest tier whose threshold does not exceed
// score. Thresholds must be ascending; nil means DefaultTierThresholds.
func ComputeTier(score int, thresholds []TierThreshold) Tier {
	if len(thresholds) == 0 {
		thresholds = DefaultTierThresholds()
	}
	tier := TierBronze
	for _, th := range thresholds {
		if score < th.Min {
			break
		}
		tier = th.Tier
	}
	return tier
}

// LevelProgress returns how far settled XP is through the current level,
// as a whole percentage in [0, 100).
func LevelProgress(settled, levelSize int) int {
	if levelSize <= 0 {
		levelSize = DefaultLevelSize
	}
	if settled < 0 {
		return 0
	}
	return (settled % levelSize) * 100 / levelSize
}

// ValidateTierThresholds checks that thresholds start at zero, name each
// tier once and ascend strictly.
func ValidateTierThresholds(thresholds []TierThreshold) error {
	if len(thresholds) == 0 {
		return fmt.Errorf("tier thresholds: empty")
	}
	if thresholds[0].Min != 0 {
		return fmt.Errorf("tier thresholds: first tier %s must start at 0, got %d", thresholds[0].Tier, thresholds[0].Min)
	}
	seen := make(map[Tier]bool, len(thresholds))
	for i, th := range thresholds {
		if seen[th.Tier] {
			return fmt.Errorf("tier thresholds: %s listed twice", th.Tier)
		}
		seen[th.Tier] = true
		if i > 0 && th.Min <= thresholds[i-1].Min {
			return fmt.Errorf("tier thresholds: %s (%d) must exceed %s (%d)",
				th.Tier, th.Min, thresholds[i-1].Tier, thresholds[i-1].Min)
		}
	}
	return nil
}
