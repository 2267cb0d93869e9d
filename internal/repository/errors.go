// Package repository holds the storage-layer sentinel errors shared by the
// memory and sqlite stores.
package repository

import "errors"

var (
	// ErrNotFound is returned when no stored row matches the key.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a row with the same id is already stored.
	ErrConflict = errors.New("conflict: id already stored")

	// ErrInvalidInput is returned for rows the store cannot persist.
	ErrInvalidInput = errors.New("invalid input")
)
