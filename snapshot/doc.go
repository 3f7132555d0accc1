// Package snapshot periodically persists a core.OrderBook's resting and
// conditional orders to disk, bounding entry-journal replay time at
// cold start to "since the last snapshot" rather than "since the
// beginning". It never reaches into the core's internals directly: every
// order it writes or restores goes through core.OrderWire/FromWire and
// OrderBook.RestoreOrder.
package snapshot
