package sqlite

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// constraintFailure returns the extended result code of a constraint
// failure, or 0 for any other error.
func constraintFailure(err error) int {
	var se *sqlite.Error
	if !errors.As(err, &se) || se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return 0
	}
	return se.Code()
}

// isUniqueViolation reports a duplicate sample ID.
func isUniqueViolation(err error) bool {
	switch constraintFailure(err) {
	case 0:
		return false
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isCheckViolation reports a line or status outside the schema's enums.
func isCheckViolation(err error) bool {
	switch constraintFailure(err) {
	case 0:
		return false
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return true
	}
	return strings.Contains(err.Error(), "CHECK constraint failed")
}
