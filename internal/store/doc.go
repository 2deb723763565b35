// Package store persists emitted properties and sets in SQLite.
//
// Store implements emit.Emitter, so a session can write straight into a
// database file:
//
//	st, err := store.Open("out.db")
//	...
//	s := engine.NewSession(reg, st)
//
// # Layout
//
//   - properties: one row per emitted property or quantity, with its value
//     as a tagged JSON envelope and its logical property hash
//   - property_sets: one row per emitted set, unique per (session, global_id)
//   - set_members: ordered property handles of each set
//   - set_targets: ordered model entity handles each set is attached to
//
// Handles are shared between properties and sets and are allocated from a
// single counter, so a property handle never collides with a set handle.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Reads return rows in handle order, members and targets in emission order.
package store
