// Package harness runs YAML scenarios against the binding layer.
//
// A scenario declares a schema in CUE, seeds records, then drives the
// search and lock APIs step by step. Every step is recorded in a trace
// that can be compared against a golden file.
//
// # Scenario Format
//
//	name: refine_and_lock
//	description: "Select, refine with AND, then contend for a lock"
//	schema: |
//	  table: Items: {type: "hash", key_type: "ShortText", column: title: type: "ShortText"}
//	records:
//	  Items:
//	    - {_key: a, title: "groonga tutorial"}
//	steps:
//	  - op: select
//	    target: Items.title
//	    query: groonga
//	    into: hits
//	    expect: {count: 1, keys: [a]}
//	  - op: select
//	    target: Items.title
//	    query: tutorial
//	    into: hits
//	    options: {operator: and}
//	  - op: lock
//	    target: Items
//	  - op: lock
//	    target: Items
//	    session: 2
//	    timeout: 10ms
//	    expect: {error: ResourceDeadlockAvoided}
//	assertions:
//	  - type: lock_state
//	    target: Items
//	    locked: true
//
// # Step Operations
//
//   - select: search target (a table, column or accessor) with query and
//     options; into names a result that later selects refine
//   - lock, unlock, clear_lock: lock the target from session 1 (default)
//     or session 2; unlock releases the token taken by an earlier lock
//   - rename: rename the target to new_name
//   - find_indexes: list the indexes over the target column for operator
//
// # Assertion Types
//
//   - trace_contains: a step with op (and target, if given) ran
//   - trace_order: steps ran in the given order ("op" or "op target")
//   - trace_count: op ran exactly count times
//   - final_state: the record with key in table holds the expected values
//   - lock_state: target is locked or not
//
// # Deterministic Testing
//
// Each scenario runs on a fresh in-memory database with sequential
// session ids and a manual clock, so lock waits finish instantly and
// traces are identical across runs.
package harness
