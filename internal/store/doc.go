// Package store defines the persistence capabilities consumed by the coach.
//
// Two backends implement them: a local variant over a process-local
// key-value medium and a remote variant over a relational store with push
// notifications. The backend is chosen once at startup and injected, so no
// caller branches on which one is active.
//
// All implementations report an unreachable medium or a rejected write as
// ErrStoreUnavailable, wrapped in a *StoreError naming the entity and
// operation.
package store
