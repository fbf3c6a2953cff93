// Package harness runs progression scenarios as executable contract tests.
//
// A scenario starts a fresh engine (deterministic wall clock and IDs, an
// in-memory SQLite store), optionally hydrates an initial record, applies a
// list of steps and checks the final state. Every engine notification is
// captured in a trace that can be pinned with golden files.
//
// # Scenario Format
//
//	name: daily_gm_settle
//	description: "Saying GM earns 10 pending XP that settles into level 1"
//	identity:
//	  address: "0xabc"
//	initial:
//	  settled_xp: 0
//	  pending_xp: 0
//	  reputation: 0
//	  badges: [Unverified]
//	rewards:
//	  DAILY_GM: 10
//	steps:
//	  - record: DAILY_GM
//	    expect: { amount: 10 }
//	  - settle: true
//	    expect: { level: 1, tier: BRONZE }
//	expect:
//	  settled_xp: 10
//	  pending_xp: 0
//	  level: 1
//	  tier: BRONZE
//	  badges: []
//	  history_count: 1
//	  noop_count: 0
//	assertions:
//	  - type: trace_count
//	    kind: reward
//	    action: DAILY_GM
//	    count: 1
//
// Steps either record an action by name or settle. An unrecognized action
// name is not a scenario error: it is recorded as a no-op, the same as an
// action that earns nothing.
//
// # Assertion Types
//
//   - trace_contains: an event with the given kind and/or action exists
//   - trace_order: reward events for the listed actions appear in order
//   - trace_count: exactly N events match the given kind and/or action
//
// # Persistence Check
//
// After the steps run, the final record is saved to the store, reloaded and
// hydrated into a second engine. Any difference between the two snapshots
// fails the scenario, as does a settlement ledger that does not match the
// settlements performed.
package harness
