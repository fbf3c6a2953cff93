package harness

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// AssertionError is returned when an assertion fails.
// It carries the trace so the failure can be read in context.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] step %d %s", i+1, ev.Step, ev.Kind)
		if ev.Action != "" {
			fmt.Fprintf(&buf, " %s", ev.Action)
		}
		if ev.Amount != 0 {
			fmt.Fprintf(&buf, " %+d", ev.Amount)
		}
		if ev.Badge != "" {
			fmt.Fprintf(&buf, " [%s]", ev.Badge)
		}
		buf.WriteByte('\n')
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns failure messages.
func EvaluateAssertions(trace []TraceEvent, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(trace, a)
		case AssertTraceCount:
			err = assertTraceCount(trace, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

// matches reports whether ev satisfies the kind/action filter of a.
// An empty filter field matches anything.
func matches(ev TraceEvent, a Assertion) bool {
	if a.Kind != "" && ev.Kind != a.Kind {
		return false
	}
	if a.Action != "" && !strings.EqualFold(ev.Action, a.Action) {
		return false
	}
	return true
}

func describe(a Assertion) string {
	parts := []string{}
	if a.Kind != "" {
		parts = append(parts, "kind="+a.Kind)
	}
	if a.Action != "" {
		parts = append(parts, "action="+a.Action)
	}
	return strings.Join(parts, " ")
}

// assertTraceContains checks that at least one event matches.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if matches(ev, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: "event with " + describe(a),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that reward events for the listed actions appear in
// order. Other events may come between them.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next == len(a.Actions) {
			break
		}
		if ev.Kind == "reward" && strings.EqualFold(ev.Action, a.Actions[next]) {
			next++
		}
	}
	if next < len(a.Actions) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("rewards in order: %v", a.Actions),
			Actual:   fmt.Sprintf("matched %d of %d, stopped at %s", next, len(a.Actions), a.Actions[next]),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceCount checks that exactly Count events match.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if matches(ev, a) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d events with %s", a.Count, describe(a)),
			Actual:   fmt.Sprintf("%d events", count),
			Trace:    trace,
		}
	}
	return nil
}

// checkExpectation compares the final state against the fields the
// scenario set.
func checkExpectation(want Expectation, got FinalState) []string {
	var failures []string
	checkInt := func(field string, want *int, got int) {
		if want != nil && *want != got {
			failures = append(failures, fmt.Sprintf("expect.%s = %d, want %d", field, got, *want))
		}
	}

	checkInt("settled_xp", want.SettledXP, got.SettledXP)
	checkInt("pending_xp", want.PendingXP, got.PendingXP)
	checkInt("level", want.Level, got.Level)
	checkInt("reputation", want.Reputation, got.Reputation)
	checkInt("history_count", want.HistoryCount, got.HistoryCount)
	checkInt("noop_count", want.NoopCount, got.NoopCount)

	if want.Tier != "" && !strings.EqualFold(want.Tier, got.Tier) {
		failures = append(failures, fmt.Sprintf("expect.tier = %s, want %s", got.Tier, want.Tier))
	}
	if want.Verified != nil && *want.Verified != got.Verified {
		failures = append(failures, fmt.Sprintf("expect.verified = %t, want %t", got.Verified, *want.Verified))
	}
	if want.Badges != nil {
		sortStrings := cmpopts.SortSlices(func(a, b string) bool { return a < b })
		if diff := cmp.Diff(want.Badges, got.Badges, sortStrings, cmpopts.EquateEmpty()); diff != "" {
			failures = append(failures, fmt.Sprintf("expect.badges mismatch (-want +got):\n%s", diff))
		}
	}
	return failures
}
