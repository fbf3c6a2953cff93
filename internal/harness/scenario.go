package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/baselines/internal/progression"
)

// Scenario defines one progression contract test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Identity is attached to the record before the steps run.
	Identity *IdentitySpec `yaml:"identity,omitempty"`

	// Initial hydrates the engine before the steps run.
	Initial *InitialState `yaml:"initial,omitempty"`

	// Rewards overlays the default reward table. A zero removes the action.
	Rewards map[string]int `yaml:"rewards,omitempty"`

	// Steps are applied in order.
	Steps []Step `yaml:"steps"`

	// Expect checks the final state. Omitted fields are not checked.
	Expect Expectation `yaml:"expect"`

	// Assertions check the trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// IdentitySpec is the identity context of a scenario.
type IdentitySpec struct {
	Address  string `yaml:"address,omitempty"`
	FID      int64  `yaml:"fid,omitempty"`
	Username string `yaml:"username,omitempty"`
}

func (s *IdentitySpec) identity() progression.Identity {
	if s == nil {
		return progression.Identity{}
	}
	return progression.Identity{Address: s.Address, FID: s.FID, Username: s.Username}
}

// InitialState seeds the record. History starts empty.
type InitialState struct {
	SettledXP  int      `yaml:"settled_xp"`
	PendingXP  int      `yaml:"pending_xp"`
	Reputation int      `yaml:"reputation"`
	Badges     []string `yaml:"badges,omitempty"`
}

// Step is either a recorded action or a settlement.
type Step struct {
	// Record is an action name such as DAILY_GM.
	Record string `yaml:"record,omitempty"`

	// Settle moves pending XP to settled XP.
	Settle bool `yaml:"settle,omitempty"`

	// Expect checks the outcome of this step.
	Expect *StepExpect `yaml:"expect,omitempty"`
}

// StepExpect checks a single step.
type StepExpect struct {
	// NoOp: the step changed nothing.
	NoOp *bool `yaml:"noop,omitempty"`

	// Amount is the XP awarded (record) or moved (settle).
	Amount *int `yaml:"amount,omitempty"`

	// Level and Tier are checked after the step.
	Level *int   `yaml:"level,omitempty"`
	Tier  string `yaml:"tier,omitempty"`
}

// Expectation checks the final state.
type Expectation struct {
	SettledXP    *int     `yaml:"settled_xp,omitempty"`
	PendingXP    *int     `yaml:"pending_xp,omitempty"`
	Level        *int     `yaml:"level,omitempty"`
	Tier         string   `yaml:"tier,omitempty"`
	Reputation   *int     `yaml:"reputation,omitempty"`
	Badges       []string `yaml:"badges,omitempty"`
	Verified     *bool    `yaml:"verified,omitempty"`
	HistoryCount *int     `yaml:"history_count,omitempty"`
	NoopCount    *int     `yaml:"noop_count,omitempty"`
}

// Assertion validates the trace.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count.
	Type string `yaml:"type"`

	// Kind filters by notification kind (reward, settled, level_up,
	// tier_changed, badge, noop).
	Kind string `yaml:"kind,omitempty"`

	// Action filters by action name.
	Action string `yaml:"action,omitempty"`

	// Count is the expected number of matches (trace_count).
	Count int `yaml:"count,omitempty"`

	// Actions is the expected reward order (trace_order).
	Actions []string `yaml:"actions,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// ScenarioFiles lists the *.yaml and *.yml files directly under dir, sorted.
func ScenarioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if s.Initial != nil {
		if s.Initial.SettledXP < 0 || s.Initial.PendingXP < 0 {
			return fmt.Errorf("initial: xp pools must be non-negative")
		}
	}

	for name, reward := range s.Rewards {
		if _, ok := progression.ParseAction(name); !ok {
			return fmt.Errorf("rewards: unknown action %q", name)
		}
		if reward < 0 {
			return fmt.Errorf("rewards.%s: must be non-negative", name)
		}
	}

	for i, step := range s.Steps {
		if (step.Record == "") == !step.Settle {
			return fmt.Errorf("steps[%d]: exactly one of record or settle is required", i)
		}
		if step.Expect != nil && step.Expect.Tier != "" {
			if _, ok := progression.ParseTier(step.Expect.Tier); !ok {
				return fmt.Errorf("steps[%d].expect: unknown tier %q", i, step.Expect.Tier)
			}
		}
	}

	if s.Expect.Tier != "" {
		if _, ok := progression.ParseTier(s.Expect.Tier); !ok {
			return fmt.Errorf("expect: unknown tier %q", s.Expect.Tier)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Kind == "" && a.Action == "" {
			return fmt.Errorf("assertions[%d]: kind or action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Kind == "" && a.Action == "" {
			return fmt.Errorf("assertions[%d]: kind or action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// rewardTable overlays the scenario rewards on the defaults.
func (s *Scenario) rewardTable() progression.RewardTable {
	table := progression.DefaultRewards()
	for name, reward := range s.Rewards {
		kind, ok := progression.ParseAction(name)
		if !ok {
			continue
		}
		if reward == 0 {
			delete(table, kind)
			continue
		}
		table[kind] = reward
	}
	return table
}
