// Package store provides the SQLite-backed audit journal for crate activity.
//
// The journal is append-only and records:
//   - Key grants: every successful give-key / give-all-keys ledger write
//   - Open attempts: every open-crate request and its outcome
//   - Stage runs: every stage executed by the sequencer
//   - Queue results: the terminal state of every scheduled queue
//
// The journal is an audit trail, not ledger persistence: key balances are
// never restored from it.
//
// # Ordering
//
//   - Every row carries a seq from a monotonic counter owned by the writer
//   - All reads ORDER BY seq ASC, id ASC COLLATE BINARY
//   - tick is informational (host tick at the time of the event)
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON
//
// Writes from the tick goroutine go through Journal, which hands rows to a
// background writer so the tick never waits on disk.
package store
