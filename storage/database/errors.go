package database

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const pqUniqueViolation = "23505"

// IsUniqueViolation reports whether err comes from a UNIQUE or PRIMARY KEY constraint, on any supported engine.
func IsUniqueViolation(err error) bool {
	switch dbErr := errors.Cause(err).(type) {
	case *pq.Error:
		return dbErr.Code == pqUniqueViolation
	case sqlite3.Error:
		return dbErr.ExtendedCode == sqlite3.ErrConstraintUnique || dbErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	case *sqlite3.Error:
		return dbErr.ExtendedCode == sqlite3.ErrConstraintUnique || dbErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// TrapNoRows swaps sql.ErrNoRows for notFound, and wraps any other error with msg.
func TrapNoRows(err error, notFound error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// TrapUnique swaps unique constraint violations for conflict, and wraps any other error with msg.
func TrapUnique(err error, conflict error, msg string) error {
	if err == nil {
		return nil
	}
	if IsUniqueViolation(err) {
		return conflict
	}
	return errors.Wrap(err, msg)
}
