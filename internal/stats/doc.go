// Package stats derives practice statistics from the activity history.
//
// The Aggregator keeps running totals that are updated on every appended
// entry; Fold recomputes the same figures from scratch and is used to seed or
// repair an Aggregator. Nothing here is persisted: statistics can always be
// rebuilt from history.
package stats
