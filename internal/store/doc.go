// Package store provides SQLite-backed persistence for progression records.
//
// The store keeps:
//   - Profiles: one row per identity key with the XP pools, reputation and flags
//   - Badges: the badge set of each profile
//   - History: every rewarded action, append-only
//   - Settlements: the ledger of claims that moved pending XP to settled
//   - Meta: small key/value flags such as the onboarding marker
//
// # Patterns
//
// Idempotent saves
//   - History rows are keyed by (profile_key, id) and inserted with
//     ON CONFLICT DO NOTHING, so saving the same snapshot twice is a no-op
//
// Logical ordering
//   - History is read back ORDER BY seq ASC, id COLLATE BINARY ASC, never by
//     wall time
//
// Derived standing is not stored
//   - Level and tier depend on engine configuration and are re-derived when a
//     loaded snapshot is hydrated into an engine
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
