// Package config loads progression settings: the reward table, level size,
// tier thresholds, verification bonus and database path.
//
// A config file is YAML and overlays the defaults, so a file that only sets
// `rewards: {SWAP: 75}` keeps every other default. Setting a reward to 0
// disables that action. Loaded files are validated structurally against an
// embedded CUE schema and semantically in Go (known action names, ascending
// tiers).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/baselines/internal/progression"
)

// DefaultDatabase is the SQLite path used when none is configured.
const DefaultDatabase = "baselines.db"

// Config is the on-disk configuration.
type Config struct {
	LevelSize         int            `yaml:"level_size" json:"level_size"`
	VerificationBonus int            `yaml:"verification_bonus" json:"verification_bonus"`
	Database          string         `yaml:"database" json:"database"`
	Tiers             map[string]int `yaml:"tiers" json:"tiers"`
	Rewards           map[string]int `yaml:"rewards" json:"rewards"`
}

// Default returns the stock configuration.
func Default() *Config {
	cfg := &Config{
		LevelSize:         progression.DefaultLevelSize,
		VerificationBonus: progression.DefaultVerificationBonus,
		Database:          DefaultDatabase,
		Tiers:             make(map[string]int),
		Rewards:           make(map[string]int),
	}
	for _, th := range progression.DefaultTierThresholds() {
		cfg.Tiers[th.Tier.String()] = th.Min
	}
	for kind, reward := range progression.DefaultRewards() {
		cfg.Rewards[kind.String()] = reward
	}
	return cfg
}

// Load reads path and overlays it on Default. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
// Unknown fields are rejected so typos do not silently fall back to defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate runs the CUE schema and the semantic checks.
func (c *Config) Validate() error {
	if err := validateSchema(c); err != nil {
		return err
	}
	for name := range c.Rewards {
		if _, ok := progression.ParseAction(name); !ok {
			return &ValidationError{Field: "rewards." + name, Message: "unknown action"}
		}
	}
	if _, err := c.TierThresholds(); err != nil {
		return err
	}
	return nil
}

// RewardTable converts the reward map. Names must already be validated.
func (c *Config) RewardTable() progression.RewardTable {
	table := make(progression.RewardTable, len(c.Rewards))
	for name, reward := range c.Rewards {
		if kind, ok := progression.ParseAction(name); ok && reward > 0 {
			table[kind] = reward
		}
	}
	return table
}

// TierThresholds converts the tier map into ascending thresholds.
func (c *Config) TierThresholds() ([]progression.TierThreshold, error) {
	thresholds := make([]progression.TierThreshold, 0, len(c.Tiers))
	for name, min := range c.Tiers {
		tier, ok := progression.ParseTier(name)
		if !ok {
			return nil, &ValidationError{Field: "tiers." + name, Message: "unknown tier"}
		}
		thresholds = append(thresholds, progression.TierThreshold{Tier: tier, Min: min})
	}
	sort.Slice(thresholds, func(i, j int) bool {
		if thresholds[i].Min == thresholds[j].Min {
			return thresholds[i].Tier < thresholds[j].Tier
		}
		return thresholds[i].Min < thresholds[j].Min
	})
	if err := progression.ValidateTierThresholds(thresholds); err != nil {
		return nil, &ValidationError{Field: "tiers", Message: err.Error()}
	}
	return thresholds, nil
}

// EngineOptions returns engine options for this config.
func (c *Config) EngineOptions() []progression.Option {
	opts := []progression.Option{
		progression.WithRewards(c.RewardTable()),
		progression.WithLevelSize(c.LevelSize),
		progression.WithVerificationBonus(c.VerificationBonus),
	}
	if thresholds, err := c.TierThresholds(); err == nil {
		opts = append(opts, progression.WithTierThresholds(thresholds))
	}
	return opts
}
