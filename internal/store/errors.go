package store

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateUsername is returned when a username is already taken.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrForeignKeyViolation is returned when a row references a missing parent.
	ErrForeignKeyViolation = errors.New("foreign key violation")

	// ErrConflict is returned for any other unique constraint violation.
	ErrConflict = errors.New("conflict")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"

	usernameUniqueConstraint = "users_username_key"
)

// translate maps PostgreSQL errors onto the store's sentinel errors. Errors
// it does not recognize are returned unchanged.
func translate(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case pqUniqueViolation:
		if pqErr.Constraint == usernameUniqueConstraint {
			return ErrDuplicateUsername
		}
		return ErrConflict
	case pqForeignKeyViolation:
		return ErrForeignKeyViolation
	}
	return err
}
