package progression

// NotificationKind classifies engine notifications.
type NotificationKind string

const (
	// KindReward: an action earned XP into the pending pool.
	KindReward NotificationKind = "reward"
	// KindSettled: pending XP moved into settled XP.
	KindSettled NotificationKind = "settled"
	// KindLevelUp: a settlement crossed at least one level boundary.
	KindLevelUp NotificationKind = "level_up"
	// KindTierChanged: a settlement moved the user into a new tier.
	KindTierChanged NotificationKind = "tier_changed"
	// KindBadge: a badge was newly attached.
	KindBadge NotificationKind = "badge"
)

// Notification describes one committed change.
// Pending, Settled, Level and Tier are the values after the change.
type Notification struct {
	Kind    NotificationKind
	Action  ActionKind
	Amount  int
	Badge   string
	Seq     int64
	Pending int
	Settled int
	Level   int
	Tier    Tier
}

// Observer receives engine notifications.
//
// Observe is called synchronously, outside the engine lock, in commit order
// for a single caller. It must not call back into mutating engine methods.
type Observer interface {
	Observe(Notification)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Notification)

// Observe calls f(n).
func (f ObserverFunc) Observe(n Notification) {
	f(n)
}
