// Package progression implements the BASELINES progression engine.
//
// The engine owns a single user progression record and turns discrete in-app
// actions into experience (XP). XP is split into two pools: pending XP, which
// accumulates as actions are recorded, and settled XP, which only grows when
// the user claims (settles) everything pending at once.
//
// ARCHITECTURE:
//
// Single Writer:
// Every mutation happens under one mutex. RecordAction and SettlePending run
// to completion before returning and never block on I/O, so the history log
// reflects call order exactly. Observers are notified after the mutation
// commits, outside the lock.
//
// Derived Standing:
// Level and tier are never stored. They are pure functions of settled XP:
//
//	level = settled / LevelSize + 1
//	tier  = highest threshold <= settled
//
// ComputeLevel and ComputeTier are exported so callers and tests can check
// derivation independently of an engine.
//
// Closed Action Set:
// ActionKind is an enumerated type. The only string boundary is ParseAction,
// used by the CLI, config files and scenario files. Kinds missing from the
// reward table (or mapped to zero) are no-ops: no mutation, no history entry,
// no notification.
//
// Side Standing:
// CONNECT_WALLET also verifies the identity: the Unverified placeholder badge
// is replaced by Verified and the reputation bonus is applied once.
// ENABLE_NOTIFICATIONS adds the Notified badge. Both happen in the same
// critical section as the XP award.
//
// Identity verification, wallet calls, settlement confirmation against an
// external ledger and persistence are collaborators. The engine only does
// the local bookkeeping.
package progression
