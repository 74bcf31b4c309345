// Package postgres provides the remote implementation of the store
// capabilities on PostgreSQL.
//
// Queries run through database/sql with the pgx stdlib driver so that every
// store can work against either a *sql.DB or a *sql.Tx. The change feed uses
// a dedicated native pgx connection because LISTEN/NOTIFY needs a connection
// that is held open for the lifetime of a subscription.
//
// Schema lives in migrations/ and is embedded into the binary; see Migrate.
package postgres
