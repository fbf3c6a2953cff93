package harness

import "github.com/roach88/baselines/internal/progression"

// KindNoOp marks a step that changed nothing. The engine emits no
// notification for it; the harness records one so the trace shows every step.
const KindNoOp = "noop"

// TraceEvent is one entry of a scenario trace: an engine notification, or a
// no-op step.
type TraceEvent struct {
	Step    int    `json:"step"`
	Kind    string `json:"kind"`
	Op      string `json:"op,omitempty"` // "record" or "settle", no-ops only
	Action  string `json:"action,omitempty"`
	Amount  int    `json:"amount,omitempty"`
	Badge   string `json:"badge,omitempty"`
	Seq     int64  `json:"seq,omitempty"`
	Pending int    `json:"pending_xp"`
	Settled int    `json:"settled_xp"`
	Level   int    `json:"level"`
	Tier    string `json:"tier"`
}

// FinalState is the record after the last step.
type FinalState struct {
	SettledXP    int      `json:"settled_xp"`
	PendingXP    int      `json:"pending_xp"`
	Level        int      `json:"level"`
	Tier         string   `json:"tier"`
	Reputation   int      `json:"reputation"`
	Badges       []string `json:"badges"`
	Verified     bool     `json:"verified"`
	HistoryCount int      `json:"history_count"`
	NoopCount    int      `json:"noop_count"`
}

func finalState(s progression.Snapshot, noops int) FinalState {
	return FinalState{
		SettledXP:    s.Settled,
		PendingXP:    s.Pending,
		Level:        s.Level,
		Tier:         s.Tier.String(),
		Reputation:   s.Reputation,
		Badges:       s.Badges,
		Verified:     s.Verified,
		HistoryCount: len(s.History),
		NoopCount:    noops,
	}
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace lists events in the order they happened.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the record after the last step.
	Final FinalState `json:"final"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// traceRecorder is the engine observer that builds the trace.
// Observers run synchronously on the caller's goroutine, so step is the
// step currently executing.
type traceRecorder struct {
	step   int
	result *Result
}

func (r *traceRecorder) Observe(n progression.Notification) {
	ev := TraceEvent{
		Step:    r.step,
		Kind:    string(n.Kind),
		Amount:  n.Amount,
		Badge:   n.Badge,
		Seq:     n.Seq,
		Pending: n.Pending,
		Settled: n.Settled,
		Level:   n.Level,
		Tier:    n.Tier.String(),
	}
	if n.Action.Valid() {
		ev.Action = n.Action.String()
	}
	r.result.Trace = append(r.result.Trace, ev)
}

func (r *traceRecorder) noop(op, action string, s progression.Snapshot) {
	r.result.Trace = append(r.result.Trace, TraceEvent{
		Step:    r.step,
		Kind:    KindNoOp,
		Op:      op,
		Action:  action,
		Pending: s.Pending,
		Settled: s.Settled,
		Level:   s.Level,
		Tier:    s.Tier.String(),
	})
}
