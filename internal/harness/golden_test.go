package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceSnapshot_CanonicalOmitsZeroFields(t *testing.T) {
	snap := TraceSnapshot{
		ScenarioName: "tiny",
		Trace: []TraceEvent{
			{Step: 1, Kind: "noop", Op: "settle", Level: 1, Tier: "BRONZE"},
		},
		Final: FinalState{Level: 1, Tier: "BRONZE"},
	}

	data, err := snap.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t,
		`{"final":{"badges":[],"history_count":0,"level":1,"noop_count":0,"pending_xp":0,"reputation":0,"settled_xp":0,"tier":"BRONZE","verified":false},`+
			`"scenario_name":"tiny",`+
			`"trace":[{"kind":"noop","level":1,"op":"settle","pending_xp":0,"settled_xp":0,"step":1,"tier":"BRONZE"}]}`,
		string(data))
}

func TestAssertGolden_ExistingResult(t *testing.T) {
	scenario := mustParse(t, `
name: daily_gm_settle
description: "same steps as the A fixture, so the golden file matches"
steps:
  - record: DAILY_GM
  - settle: true
`)
	result, err := Run(scenario)
	require.NoError(t, err)
	require.NoError(t, AssertGolden(t, scenario.Name, result))
}
