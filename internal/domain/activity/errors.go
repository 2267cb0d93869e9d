package activity

import "errors"

var (
	// ErrInvalidInput indicates an entry without a type or summary.
	ErrInvalidInput = errors.New("invalid activity input")
	// ErrUnknownType indicates a query for a type the console never records.
	ErrUnknownType = errors.New("unknown activity type")
)
