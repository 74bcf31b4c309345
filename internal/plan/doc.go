// Package plan manages the weekly plan lifecycle: marking daily goals as
// completed and persisting the result, plus the built-in plan used when no
// generated plan is available.
//
// Completion is one-directional. There is deliberately no operation that
// clears a goal's completed flag.
package plan
