// Package localstore implements the store capabilities over a process-local
// key-value medium. Each user's data is kept as one JSON document under a
// single key, so every write replaces the whole snapshot in one Set and a
// failed write leaves the previous snapshot untouched.
package localstore
