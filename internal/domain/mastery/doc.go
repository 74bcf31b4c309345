// Package mastery implements the spaced-repetition schedule for vocabulary
// items. A review outcome moves an item's mastery level one step up or down
// within [0,5]; the new level selects how many whole days pass before the
// item is due again.
//
// Everything here is pure: the caller supplies the clock, and no state is
// held between calls, so the functions are safe for concurrent use.
package mastery
