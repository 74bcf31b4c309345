// Package events carries outcome events (a flashcard graded, a practice
// attempt judged) from the coaching service to the components that fold
// them into derived state.
//
// The primary components are:
// - OutcomeEvent: one graded activity, with its history entry
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events
