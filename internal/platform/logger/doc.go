// Package logger provides structured logging functionality for the application.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels, and carries request-scoped loggers through
// context.Context so that attributes such as trace and user IDs follow a call
// from the HTTP layer down into the stores.
package logger
