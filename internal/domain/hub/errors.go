package hub

import "errors"

var (
	// ErrWrongMode indicates an action not available in the current view mode.
	ErrWrongMode = errors.New("action not available in current view mode")
	// ErrNotInView indicates the sample is not in the current list snapshot.
	ErrNotInView = errors.New("sample not in current list")
	// ErrImportInProgress indicates an import is already running.
	ErrImportInProgress = errors.New("import already in progress")
	// ErrClosed indicates the hub was unmounted.
	ErrClosed = errors.New("sample hub closed")
)
