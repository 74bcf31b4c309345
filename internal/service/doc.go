// Package service orchestrates the coaching flows: onboarding, flashcard
// review, practice attempts, goal completion and week advancement. It wires
// the mastery model, the progress backend, the plan lifecycle, the
// generation backends and the session statistics together.
//
// The backend is chosen once at startup and injected; nothing in this
// package knows whether it is local or remote.
package service
