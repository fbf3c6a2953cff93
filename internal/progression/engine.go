package progression

import (
	"log/slog"
	"slices"
	"sync"
)

// Engine owns one user progression record.
//
// CRITICAL: the record is only mutated by RecordAction and SettlePending
// (plus Hydrate/SetIdentity at session start), all under mu. Readers get
// copies.
//
// Thread-safety model:
//   - every exported method is safe from any goroutine
//   - mutations are serialized; history order equals call order
//   - observers run after unlock, on the calling goroutine
type Engine struct {
	mu     sync.Mutex
	record *userProgression

	rewards           RewardTable
	levelSize         int
	tiers             []TierThreshold
	verificationBonus int

	clock     *Clock
	wall      WallClock
	ids       IDGenerator
	logger    *slog.Logger
	observers []Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithRewards replaces the reward table. The table is copied.
func WithRewards(table RewardTable) Option {
	return func(e *Engine) {
		e.rewards = table.Clone()
	}
}

// WithLevelSize sets the XP width of a level. Non-positive values are ignored.
func WithLevelSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.levelSize = size
		}
	}
}

// WithTierThresholds sets ascending tier thresholds.
// Callers are expected to have checked them with ValidateTierThresholds.
func WithTierThresholds(thresholds []TierThreshold) Option {
	return func(e *Engine) {
		if len(thresholds) > 0 {
			e.tiers = slices.Clone(thresholds)
		}
	}
}

// WithVerificationBonus sets the one-time reputation bonus for verifying.
func WithVerificationBonus(bonus int) Option {
	return func(e *Engine) {
		if bonus >= 0 {
			e.verificationBonus = bonus
		}
	}
}

// WithWallClock sets the timestamp source.
func WithWallClock(c WallClock) Option {
	return func(e *Engine) {
		if c != nil {
			e.wall = c
		}
	}
}

// WithIDGenerator sets the history ID source.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		if g != nil {
			e.ids = g
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver subscribes o at construction.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// New creates an Engine with a default (zero) record.
func New(opts ...Option) *Engine {
	e := &Engine{
		rewards:           DefaultRewards(),
		levelSize:         DefaultLevelSize,
		tiers:             DefaultTierThresholds(),
		verificationBonus: DefaultVerificationBonus,
		clock:             NewClock(),
		wall:              SystemClock{},
		ids:               UUIDv7Generator{},
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe adds an observer. Observers are called in subscription order.
func (e *Engine) Subscribe(o Observer) {
	if o == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

// Hydrate replaces the record with one restored from s and resumes the
// logical clock after the last history entry. Level and Tier in s are
// ignored and re-derived from s.Settled.
func (e *Engine) Hydrate(s Snapshot) error {
	rec, err := recordFromSnapshot(s)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record = rec
	e.clock = NewClockAt(rec.lastSeq())
	e.logger.Debug("progression hydrated",
		"identity", rec.identity.Key(),
		"settled_xp", rec.settled,
		"pending_xp", rec.pending,
		"history", len(rec.history),
	)
	return nil
}

// SetIdentity attaches the identity context. It earns nothing; verification
// goes through RecordAction(ActionConnectWallet).
func (e *Engine) SetIdentity(id Identity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec := e.ensureRecord()
	if id.Address != "" {
		rec.identity.Address = id.Address
	}
	if id.FID != 0 {
		rec.identity.FID = id.FID
	}
	if id.Username != "" {
		rec.identity.Username = id.Username
	}
}

// ReloadRewards swaps the reward table. Existing history keeps the amounts
// granted when each entry was recorded.
func (e *Engine) ReloadRewards(table RewardTable) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rewards = table.Clone()
	e.logger.Info("reward table reloaded", "entries", len(e.rewards))
}

// Rewards returns a copy of the active reward table.
func (e *Engine) Rewards() RewardTable {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rewards.Clone()
}

// RecordAction credits the reward for action to pending XP and appends a
// history entry. It returns the event to display and true, or false when
// the action earns nothing (unknown, unlisted or zero reward), in which case
// nothing changes and no observer is notified.
//
// CONNECT_WALLET also verifies: Unverified is replaced by Verified and the
// reputation bonus is added the first time only. ENABLE_NOTIFICATIONS adds
// the Notified badge. These land in the same critical section as the XP.
func (e *Engine) RecordAction(action ActionKind) (RewardEvent, bool) {
	e.mu.Lock()
	amount := e.rewards.Reward(action)
	if amount == 0 {
		e.mu.Unlock()
		e.logger.Debug("action earns nothing", "action", action.String())
		return RewardEvent{}, false
	}

	rec := e.ensureRecord()
	entry := HistoryEntry{
		ID:        e.ids.NewID(),
		Seq:       e.clock.Next(),
		Action:    action,
		Amount:    amount,
		Timestamp: e.wall.Now().UTC(),
	}
	rec.pending += amount
	rec.history = append(rec.history, entry)

	notes := []Notification{e.note(rec, KindReward, action, amount, entry.Seq)}
	for _, badge := range e.applyStanding(rec, action) {
		n := e.note(rec, KindBadge, action, 0, entry.Seq)
		n.Badge = badge
		notes = append(notes, n)
	}
	observers := e.observers
	e.mu.Unlock()

	e.logger.Info("xp awarded",
		"action", action.String(),
		"amount", amount,
		"seq", entry.Seq,
		"pending_xp", notes[0].Pending,
	)
	dispatch(observers, notes)

	return RewardEvent{
		Action: action,
		Label:  action.Label(),
		Amount: amount,
		Seq:    entry.Seq,
	}, true
}

// applyStanding applies non-XP effects of action and returns badges newly
// attached. Caller holds mu.
func (e *Engine) applyStanding(rec *userProgression, action ActionKind) []string {
	var added []string
	switch action {
	case ActionConnectWallet:
		rec.removeBadge(BadgeUnverified)
		if rec.addBadge(BadgeVerified) {
			added = append(added, BadgeVerified)
			rec.reputation += e.verificationBonus
		}
		rec.verified = true
	case ActionEnableNotifications:
		if rec.addBadge(BadgeNotified) {
			added = append(added, BadgeNotified)
		}
		rec.notificationsEnabled = true
	}
	return added
}

// SettlePending moves all pending XP into settled XP in one step and
// reports the level and tier before and after. With nothing pending it
// changes nothing and returns Settled == 0.
func (e *Engine) SettlePending() SettleResult {
	e.mu.Lock()
	rec := e.ensureRecord()
	result := SettleResult{
		Total:         rec.settled,
		PreviousLevel: ComputeLevel(rec.settled, e.levelSize),
		PreviousTier:  ComputeTier(rec.settled, e.tiers),
	}
	if rec.pending == 0 {
		result.Level = result.PreviousLevel
		result.Tier = result.PreviousTier
		e.mu.Unlock()
		e.logger.Debug("nothing to settle")
		return result
	}

	result.Settled = rec.pending
	rec.settled += rec.pending
	rec.pending = 0
	result.Total = rec.settled
	result.Level = ComputeLevel(rec.settled, e.levelSize)
	result.Tier = ComputeTier(rec.settled, e.tiers)

	seq := e.clock.Current()
	notes := []Notification{e.note(rec, KindSettled, ActionUnknown, result.Settled, seq)}
	if result.LeveledUp() {
		notes = append(notes, e.note(rec, KindLevelUp, ActionUnknown, result.Level-result.PreviousLevel, seq))
	}
	if result.TierChanged() {
		notes = append(notes, e.note(rec, KindTierChanged, ActionUnknown, 0, seq))
	}
	observers := e.observers
	e.mu.Unlock()

	e.logger.Info("xp settled",
		"amount", result.Settled,
		"settled_xp", result.Total,
		"level", result.Level,
		"tier", result.Tier.String(),
	)
	dispatch(observers, notes)
	return result
}

// ComputeLevel derives the level for settled XP with this engine's level size.
func (e *Engine) ComputeLevel(settled int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ComputeLevel(settled, e.levelSize)
}

// ComputeTier derives the tier for settled XP with this engine's thresholds.
func (e *Engine) ComputeTier(settled int) Tier {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ComputeTier(settled, e.tiers)
}

// LevelSize returns the configured level width.
func (e *Engine) LevelSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.levelSize
}

// Snapshot returns a copy of the record with derived standing.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ensureRecord().snapshot(e.levelSize, e.tiers)
}

// Pending returns pending XP.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ensureRecord().pending
}

// Settled returns settled XP.
func (e *Engine) Settled() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ensureRecord().settled
}

// Level returns the current level.
func (e *Engine) Level() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ComputeLevel(e.ensureRecord().settled, e.levelSize)
}

// Tier returns the current tier.
func (e *Engine) Tier() Tier {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ComputeTier(e.ensureRecord().settled, e.tiers)
}

// Badges returns the attached badges, sorted.
func (e *Engine) Badges() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	badges := slices.Clone(e.ensureRecord().badges)
	slices.Sort(badges)
	if badges == nil {
		badges = []string{}
	}
	return badges
}

// History returns a copy of the history in recording order.
func (e *Engine) History() []HistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	h := slices.Clone(e.ensureRecord().history)
	if h == nil {
		h = []HistoryEntry{}
	}
	return h
}

// ensureRecord lazily creates the default record. Caller holds mu.
func (e *Engine) ensureRecord() *userProgression {
	if e.record == nil {
		e.record = &userProgression{}
	}
	return e.record
}

// note builds a Notification carrying the record's post-change state.
// Caller holds mu.
func (e *Engine) note(rec *userProgression, kind NotificationKind, action ActionKind, amount int, seq int64) Notification {
	return Notification{
		Kind:    kind,
		Action:  action,
		Amount:  amount,
		Seq:     seq,
		Pending: rec.pending,
		Settled: rec.settled,
		Level:   ComputeLevel(rec.settled, e.levelSize),
		Tier:    ComputeTier(rec.settled, e.tiers),
	}
}

func dispatch(observers []Observer, notes []Notification) {
	for _, n := range notes {
		for _, o := range observers {
			o.Observe(n)
		}
	}
}
