package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fluentwork/coach/internal/store"
	"github.com/jackc/pgx/v5/pgconn"
)

// integrityViolationClass is the SQLSTATE class of constraint failures:
// unique, foreign key, check and not null violations.
const integrityViolationClass = "23"

// MapError classifies a driver error. Missing rows become store.ErrNotFound
// and integrity violations, such as a mastery level outside the column's
// check constraint, become store.ErrInvalidEntity. Other errors are
// returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, integrityViolationClass) {
		target := pgErr.ConstraintName
		if target == "" {
			target = pgErr.ColumnName
		}
		return fmt.Errorf("%w: %s violated (%s): %w", store.ErrInvalidEntity, target, pgErr.Code, err)
	}
	return err
}

// wrapError turns a driver error into a *store.StoreError. Not-found keeps
// its own category; everything else means the store could not serve the
// call and is reported as store.ErrStoreUnavailable.
func wrapError(entity, operation string, err error) error {
	if err == nil {
		return nil
	}
	mapped := MapError(err)
	if errors.Is(mapped, store.ErrNotFound) {
		return store.NewStoreError(entity, operation, "not found", mapped)
	}
	return store.Unavailable(entity, operation, mapped)
}

// CheckRowsAffected returns notFound when result touched no rows.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return errors.New("no result to check")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
