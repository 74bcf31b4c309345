// Package reconcile keeps an in-memory view of a user's progress records in
// step with the remote store's change feed.
//
// A Session is seeded from a full load and then applies insert, update and
// delete notifications per record key. Notifications older than the held
// record are ignored, so duplicate and reordered delivery is harmless. Each
// admitted record is joined with its vocabulary item before it is handed to
// the Listener.
//
// If the feed itself fails the session reports the error through
// Listener.Ended and stops; the consumer reseeds by starting a new session.
package reconcile
