// Package crate defines the crate domain types shared by every other package:
// crate types, items, weighted reward pools, and the validated catalog.
//
// This package imports nothing internal. The ledger, selector, sequencer and
// engine all build on these types.
//
// Key design constraints:
//   - The set of crate types is closed (mage, ice, ender, magma, pegasus)
//   - A reward pool may be empty; an empty pool is a normal outcome, not a fault
//   - Pool weights are strictly positive
//   - Catalog validation happens once at construction, never on the hot path
package crate
