// Package flowpool implements a dense, keyed [Pool] of per-flow values.
//
// A flow probing datapath keeps one pre-built packet buffer per flow
// and transmits all of them in a tight loop. The pool stores those
// buffers contiguously so the loop can walk them by index,
// while still allowing insertion and removal by flow identifier in O(1).
//
// The following is a summary (intended for maintainers)
// of how the tables are kept in step.
//
// Glossary and invariants:
//
//   - Slot table
//
//     Dense slice of values, indexed 0..n-1. Never has holes.
//
//   - Identifier table
//
//     Dense slice of flow identifiers.
//     ids[i] is the identifier that owns slots[i].
//
//   - Locator
//
//     Map from identifier to its current index in both tables.
//
//   - len(locator) == len(slots) == len(ids) before and after every call.
//
//   - For every (id, i) in locator: ids[i] == id.
//
// Operations:
//
//   - Insertion
//
//     Appends to the tail of both tables and records the new index.
//     An identifier that is already live is rejected;
//     the pool does not take the rejected value.
//
//   - Removal
//
//     The tail entry is moved into the removed entry's slot
//     in both tables, its locator entry is re-pointed,
//     and both tables shrink by one.
//     Only the removed slot and the tail slot are touched,
//     so the previous tail is the only entry whose index changes.
//
//   - Release
//
//     Values leave the pool only through its [Policy].
//     Removal, replacement, [Pool.Clear], and [Pool.Close]
//     all route through a single release path,
//     so each value is released exactly once.
//
// Building with the `flowpool_debug` tag checks the invariants
// after every mutation. Run the tests with it when changing the pool:
//
//	go test -tags flowpool_debug ./...
package flowpool
