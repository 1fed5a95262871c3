// Package pgerr translates PostgreSQL driver errors into common sentinels.
package pgerr

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/swiftportal/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation        = "23505"
	checkViolation         = "23514"
	numericValueOutOfRange = "22003"
)

// Wrap maps sql.ErrNoRows to common.ErrNotFound, unique violations to
// common.ErrConflict and rejected values to common.ErrValidation; every
// other error is wrapped as a db error.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%w: %s", common.ErrConflict, pgErr.ConstraintName)
		case checkViolation, numericValueOutOfRange:
			return fmt.Errorf("%w: %s", common.ErrValidation, pgErr.Message)
		}
	}
	return fmt.Errorf("db error: %w", err)
}
