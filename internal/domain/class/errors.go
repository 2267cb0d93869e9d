package class

import "errors"

var (
	// ErrUnknownClass indicates a defect code with no registry entry.
	ErrUnknownClass = errors.New("unknown class reference")
	// ErrInvalidRegistry indicates duplicate or empty class definitions.
	ErrInvalidRegistry = errors.New("invalid class registry")
)
