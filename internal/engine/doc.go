// Package engine is the crate facade: it turns inbound host events (open
// crate, give key, give all keys, spawn crate, player quit) into ledger
// writes and reveal queues.
//
// ARCHITECTURE:
//
// Single tick goroutine:
// Every handler runs on the host tick goroutine. The ledger, the selector
// and the sequencer are owned by that goroutine and carry no locks.
//
// Open-crate flow:
//  1. Busy check (reject policy only): a reveal already playing -> crate-busy
//  2. Key gate: balance minus keys reserved by unstarted reveals must be > 0
//  3. Reward selection: empty pool -> no-rewards
//  4. Item resolution: unresolvable reward -> no-item
//  5. Capacity: inventory cannot take the item -> inventory-full
//  6. Four-stage reveal queue is started on the sequencer
//
// Steps 1-5 are pure checks. Only stage 0 of the reveal mutates state
// (item granted, key deducted); stages 1-3 are cosmetic countdown cues.
//
// User-facing failures cancel the event with a Reason and send exactly one
// localized message. Configuration faults (unknown crate type, malformed
// amounts) cancel the event and return an *Error.
//
// Collaborators:
// The engine never talks to a game server directly. Players, entities,
// inventories, effects, localization, item resolution and spawning are
// interfaces bundled in Host.
package engine
