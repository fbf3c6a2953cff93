package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/baselines/internal/progression"
	"github.com/roach88/baselines/internal/store"
	"github.com/roach88/baselines/internal/testutil"
)

// Harness holds the per-scenario execution state.
type Harness struct {
	store    *store.Store
	engine   *progression.Engine
	clock    *testutil.StepClock
	recorder *traceRecorder
	logger   *slog.Logger

	settlements []progression.SettleResult
	noops       int
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh engine and a fresh in-memory database.
// The wall clock and history IDs are deterministic, so identical scenarios
// produce identical traces.
//
// Execution flow:
//  1. Hydrate the identity and initial state
//  2. Apply steps, checking per-step expectations
//  3. Check the final expectation and trace assertions
//  4. Save, reload and compare the record
//
// A returned error means the scenario could not be executed; failed
// expectations are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	result := NewResult()
	h := &Harness{
		store:    st,
		clock:    testutil.NewStepClock(),
		recorder: &traceRecorder{result: result},
		logger:   logger,
	}
	h.engine = progression.New(
		progression.WithRewards(scenario.rewardTable()),
		progression.WithWallClock(h.clock),
		progression.WithIDGenerator(testutil.NewSequentialIDs("xp")),
		progression.WithLogger(logger),
		progression.WithObserver(h.recorder),
	)

	if err := h.seed(scenario); err != nil {
		return nil, fmt.Errorf("failed to seed scenario: %w", err)
	}

	for i, step := range scenario.Steps {
		h.executeStep(i, step, result)
	}

	snap := h.engine.Snapshot()
	result.Final = finalState(snap, h.noops)
	for _, msg := range checkExpectation(scenario.Expect, result.Final) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result.Trace, scenario.Assertions) {
		result.AddError(msg)
	}

	ctx := context.Background()
	if err := h.checkPersistence(ctx, snap, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (h *Harness) seed(s *Scenario) error {
	id := s.Identity.identity()
	if s.Initial == nil {
		h.engine.SetIdentity(id)
		return nil
	}
	badges := slices.Clone(s.Initial.Badges)
	return h.engine.Hydrate(progression.Snapshot{
		Identity:   id,
		Settled:    s.Initial.SettledXP,
		Pending:    s.Initial.PendingXP,
		Reputation: s.Initial.Reputation,
		Badges:     badges,
		Verified:   slices.Contains(badges, progression.BadgeVerified),
	})
}

// executeStep applies one step. Steps are numbered from 1 in the trace.
func (h *Harness) executeStep(i int, step Step, result *Result) {
	h.recorder.step = i + 1
	label := fmt.Sprintf("steps[%d]", i)

	var (
		noop   bool
		amount int
	)
	if step.Settle {
		res := h.engine.SettlePending()
		if res.Settled == 0 {
			noop = true
			h.recorder.noop("settle", "", h.engine.Snapshot())
		} else {
			amount = res.Settled
			h.settlements = append(h.settlements, res)
		}
		h.logger.Debug("settle step", "step", i, "settled", res.Settled)
	} else {
		kind, _ := progression.ParseAction(step.Record)
		ev, ok := h.engine.RecordAction(kind)
		if !ok {
			noop = true
			h.recorder.noop("record", step.Record, h.engine.Snapshot())
		}
		amount = ev.Amount
		h.logger.Debug("record step", "step", i, "action", step.Record, "awarded", ok)
	}
	if noop {
		h.noops++
	}

	if step.Expect == nil {
		return
	}
	exp := step.Expect
	if exp.NoOp != nil && *exp.NoOp != noop {
		result.AddError(fmt.Sprintf("%s: noop = %t, want %t", label, noop, *exp.NoOp))
	}
	if exp.Amount != nil && *exp.Amount != amount {
		result.AddError(fmt.Sprintf("%s: amount = %d, want %d", label, amount, *exp.Amount))
	}
	if exp.Level != nil {
		if got := h.engine.Level(); got != *exp.Level {
			result.AddError(fmt.Sprintf("%s: level = %d, want %d", label, got, *exp.Level))
		}
	}
	if exp.Tier != "" {
		want, _ := progression.ParseTier(exp.Tier)
		if got := h.engine.Tier(); got != want {
			result.AddError(fmt.Sprintf("%s: tier = %s, want %s", label, got, want))
		}
	}
}

// checkPersistence saves the record and its settlement ledger, then reloads
// and hydrates a second engine and compares.
func (h *Harness) checkPersistence(ctx context.Context, snap progression.Snapshot, result *Result) error {
	key := snap.Identity.Key()
	if err := h.store.SaveProfile(ctx, snap); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	for _, res := range h.settlements {
		if err := h.store.RecordSettlement(ctx, key, res, h.clock.Now()); err != nil {
			return fmt.Errorf("record settlement: %w", err)
		}
	}

	loaded, err := h.store.LoadProfile(ctx, key)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	restored := progression.New(
		progression.WithRewards(h.engine.Rewards()),
		progression.WithLogger(h.logger),
	)
	if err := restored.Hydrate(loaded); err != nil {
		result.AddError(fmt.Sprintf("persistence: stored record does not hydrate: %v", err))
		return nil
	}
	if diff := cmp.Diff(snap, restored.Snapshot()); diff != "" {
		result.AddError(fmt.Sprintf("persistence: reloaded record differs (-saved +loaded):\n%s", diff))
	}

	ledger, err := h.store.ListSettlements(ctx, key)
	if err != nil {
		return fmt.Errorf("list settlements: %w", err)
	}
	if len(ledger) != len(h.settlements) {
		result.AddError(fmt.Sprintf("persistence: %d settlements stored, want %d", len(ledger), len(h.settlements)))
	}
	return nil
}
