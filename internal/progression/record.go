package progression

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/roach88/baselines/internal/canonical"
)

// Badge names with engine-managed semantics.
const (
	BadgeVerified   = "Verified"
	BadgeUnverified = "Unverified"
	BadgeNotified   = "Notified"
)

// Identity is the external identity context: a wallet address and/or a
// social handle. The engine references it and never authenticates it.
type Identity struct {
	Address  string
	FID      int64
	Username string
}

// Key returns the stable storage key for the identity: the lowercased
// address, else "fid:<n>", else the normalized username, else "local".
func (id Identity) Key() string {
	if addr := strings.ToLower(strings.TrimSpace(id.Address)); addr != "" {
		return addr
	}
	if id.FID > 0 {
		return fmt.Sprintf("fid:%d", id.FID)
	}
	if name := canonical.Text(id.Username); name != "" {
		return name
	}
	return "local"
}

// IsZero reports whether no identity fields are set.
func (id Identity) IsZero() bool {
	return strings.TrimSpace(id.Address) == "" && id.FID == 0 && strings.TrimSpace(id.Username) == ""
}

// HistoryEntry is one rewarded action.
type HistoryEntry struct {
	ID        string
	Seq       int64
	Action    ActionKind
	Amount    int
	Timestamp time.Time
}

// RewardEvent is what RecordAction hands back for display.
type RewardEvent struct {
	Action ActionKind
	Label  string
	Amount int
	Seq    int64
}

// SettleResult reports a settlement. Settled is zero when nothing was pending.
type SettleResult struct {
	Settled       int
	Total         int
	PreviousLevel int
	Level         int
	PreviousTier  Tier
	Tier          Tier
}

// LeveledUp reports whether the settlement crossed a level boundary.
func (r SettleResult) LeveledUp() bool {
	return r.Level > r.PreviousLevel
}

// TierChanged reports whether the settlement moved the user to a new tier.
func (r SettleResult) TierChanged() bool {
	return r.Tier != r.PreviousTier
}

// Snapshot is a read-only copy of a progression record plus its derived
// standing. Mutating a Snapshot has no effect on the engine.
type Snapshot struct {
	Identity             Identity
	Settled              int
	Pending              int
	Level                int
	Tier                 Tier
	Reputation           int
	Badges               []string
	History              []HistoryEntry
	Verified             bool
	NotificationsEnabled bool
}

// HasBadge reports whether the snapshot carries badge.
func (s Snapshot) HasBadge(badge string) bool {
	return slices.Contains(s.Badges, canonical.Text(badge))
}

// userProgression is the engine-owned record.
type userProgression struct {
	identity             Identity
	settled              int
	pending              int
	reputation           int
	badges               []string
	history              []HistoryEntry
	verified             bool
	notificationsEnabled bool
}

// addBadge attaches badge unless present. Reports whether it was added.
func (r *userProgression) addBadge(badge string) bool {
	badge = canonical.Text(badge)
	if badge == "" || slices.Contains(r.badges, badge) {
		return false
	}
	r.badges = append(r.badges, badge)
	return true
}

// removeBadge detaches badge if present.
func (r *userProgression) removeBadge(badge string) {
	badge = canonical.Text(badge)
	r.badges = slices.DeleteFunc(r.badges, func(b string) bool { return b == badge })
}

func (r *userProgression) hasBadge(badge string) bool {
	return slices.Contains(r.badges, canonical.Text(badge))
}

func (r *userProgression) snapshot(levelSize int, tiers []TierThreshold) Snapshot {
	badges := slices.Clone(r.badges)
	slices.Sort(badges)
	if badges == nil {
		badges = []string{}
	}
	history := slices.Clone(r.history)
	if history == nil {
		history = []HistoryEntry{}
	}
	return Snapshot{
		Identity:             r.identity,
		Settled:              r.settled,
		Pending:              r.pending,
		Level:                ComputeLevel(r.settled, levelSize),
		Tier:                 ComputeTier(r.settled, tiers),
		Reputation:           r.reputation,
		Badges:               badges,
		History:              history,
		Verified:             r.verified,
		NotificationsEnabled: r.notificationsEnabled,
	}
}

// recordFromSnapshot validates s and builds a record from it.
// Level and Tier in s are ignored; they are re-derived.
func recordFromSnapshot(s Snapshot) (*userProgression, error) {
	if s.Settled < 0 {
		return nil, fmt.Errorf("%w: settled xp %d is negative", ErrInvalidSnapshot, s.Settled)
	}
	if s.Pending < 0 {
		return nil, fmt.Errorf("%w: pending xp %d is negative", ErrInvalidSnapshot, s.Pending)
	}
	var lastSeq int64
	for i, h := range s.History {
		if h.Amount <= 0 {
			return nil, fmt.Errorf("%w: history[%d] amount %d is not positive", ErrInvalidSnapshot, i, h.Amount)
		}
		if h.Seq <= lastSeq {
			return nil, fmt.Errorf("%w: history[%d] seq %d is not increasing", ErrInvalidSnapshot, i, h.Seq)
		}
		lastSeq = h.Seq
	}

	r := &userProgression{
		identity:             s.Identity,
		settled:              s.Settled,
		pending:              s.Pending,
		reputation:           s.Reputation,
		history:              slices.Clone(s.History),
		verified:             s.Verified,
		notificationsEnabled: s.NotificationsEnabled,
	}
	for _, b := range s.Badges {
		r.addBadge(b)
	}
	if r.hasBadge(BadgeVerified) {
		r.verified = true
	}
	return r, nil
}

func (r *userProgression) lastSeq() int64 {
	if len(r.history) == 0 {
		return 0
	}
	return r.history[len(r.history)-1].Seq
}
