package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes MapError recognizes.
const (
	pgUniqueViolation  = "23505"
	pgCheckViolation   = "23514"
	pgNotNullViolation = "23502"
)

// ErrorMap names the domain errors a table's failures translate to.
// A nil field leaves that class of error unchanged.
type ErrorMap struct {
	NotFound   error
	Duplicate  error
	Constraint error
}

// MapError translates database errors to domain errors. sql.ErrNoRows maps
// to NotFound, a unique violation to Duplicate, and check or not-null
// violations to Constraint with the constraint or column named. Other
// errors are returned unchanged.
func MapError(err error, m ErrorMap) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) && m.NotFound != nil {
		return m.NotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch {
	case pgErr.Code == pgUniqueViolation && m.Duplicate != nil:
		return m.Duplicate
	case pgErr.Code == pgCheckViolation && m.Constraint != nil:
		return fmt.Errorf("%w: %s", m.Constraint, pgErr.ConstraintName)
	case pgErr.Code == pgNotNullViolation && m.Constraint != nil:
		return fmt.Errorf("%w: %s is null", m.Constraint, pgErr.ColumnName)
	}

	return err
}
