package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioPaths(t *testing.T) []string {
	t.Helper()
	paths, err := ScenarioFiles(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	return paths
}

func TestRun_Fixtures(t *testing.T) {
	for _, path := range scenarioPaths(t) {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_DeterministicTrace(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "c_verify_once.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.Final, second.Final)
}

func mustParse(t *testing.T, src string) *Scenario {
	t.Helper()
	scenario, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	return scenario
}

func TestRun_ReportsFailedExpectations(t *testing.T) {
	scenario := mustParse(t, `
name: wrong
description: "expects the wrong values"
steps:
  - record: SWAP
    expect: { amount: 40, noop: true }
  - settle: true
    expect: { level: 3, tier: GOLD }
expect:
  settled_xp: 49
  tier: SILVER
  badges: [Verified]
  verified: true
assertions:
  - type: trace_contains
    kind: badge
`)
	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)

	joined := strings.Join(result.Errors, "\n")
	assert.Contains(t, joined, "steps[0]: amount = 50, want 40")
	assert.Contains(t, joined, "steps[0]: noop = false, want true")
	assert.Contains(t, joined, "steps[1]: level = 1, want 3")
	assert.Contains(t, joined, "steps[1]: tier = BRONZE, want GOLD")
	assert.Contains(t, joined, "expect.settled_xp = 50, want 49")
	assert.Contains(t, joined, "expect.tier = BRONZE, want SILVER")
	assert.Contains(t, joined, "expect.badges mismatch")
	assert.Contains(t, joined, "expect.verified = false, want true")
	assert.Contains(t, joined, "Assertion failed: trace_contains")
}

func TestRun_RewardOverrides(t *testing.T) {
	scenario := mustParse(t, `
name: overrides
description: "scenario reward table overlays the defaults"
rewards:
  DAILY_GM: 500
  SWAP: 0
steps:
  - record: DAILY_GM
  - record: SWAP
    expect: { noop: true }
  - settle: true
expect:
  settled_xp: 500
  level: 2
  noop_count: 1
`)
	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_NotificationsBadge(t *testing.T) {
	scenario := mustParse(t, `
name: notifications
description: "enabling notifications attaches Notified once"
identity:
  fid: 12842
steps:
  - record: ENABLE_NOTIFICATIONS
  - record: ENABLE_NOTIFICATIONS
expect:
  pending_xp: 40
  badges: [Notified]
assertions:
  - type: trace_count
    kind: badge
    count: 1
`)
	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_HydratedVerifiedEarnsNoBonus(t *testing.T) {
	scenario := mustParse(t, `
name: carried_verified
description: "a hydrated Verified badge implies verified and earns no second bonus"
initial:
  reputation: 100
  badges: [Verified]
steps:
  - record: CONNECT_WALLET
expect:
  reputation: 100
  verified: true
  badges: [Verified]
`)
	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}
