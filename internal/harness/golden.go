package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/baselines/internal/canonical"
)

// TraceSnapshot captures a scenario execution for golden comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
	Final        FinalState   `json:"final"`
}

// toCanonicalMap converts the snapshot into the value shapes canonical.Marshal
// accepts. Zero-valued optional event fields are omitted.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		m := map[string]any{
			"step":       ev.Step,
			"kind":       ev.Kind,
			"pending_xp": ev.Pending,
			"settled_xp": ev.Settled,
			"level":      ev.Level,
			"tier":       ev.Tier,
		}
		if ev.Op != "" {
			m["op"] = ev.Op
		}
		if ev.Action != "" {
			m["action"] = ev.Action
		}
		if ev.Amount != 0 {
			m["amount"] = ev.Amount
		}
		if ev.Badge != "" {
			m["badge"] = ev.Badge
		}
		if ev.Seq != 0 {
			m["seq"] = ev.Seq
		}
		trace[i] = m
	}

	badges := s.Final.Badges
	if badges == nil {
		badges = []string{}
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
		"final": map[string]any{
			"settled_xp":    s.Final.SettledXP,
			"pending_xp":    s.Final.PendingXP,
			"level":         s.Final.Level,
			"tier":          s.Final.Tier,
			"reputation":    s.Final.Reputation,
			"badges":        badges,
			"verified":      s.Final.Verified,
			"history_count": s.Final.HistoryCount,
			"noop_count":    s.Final.NoopCount,
		},
	}
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s *TraceSnapshot) MarshalCanonical() ([]byte, error) {
	return canonical.Marshal(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its trace and final state
// against testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass; a golden mismatch
// fails t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Final:        result.Final,
	}
	data, err := snapshot.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
