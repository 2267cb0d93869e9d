package wizard

import "errors"

var (
	// ErrValidation indicates the current step's required field is unset.
	ErrValidation = errors.New("step requirement not met")
	// ErrOutOfRange indicates a move past the first or last step.
	ErrOutOfRange = errors.New("no step in that direction")
	// ErrWrongStep indicates an action not available at the current step.
	ErrWrongStep = errors.New("action not available at current step")
	// ErrFieldLocked indicates a field pinned by a derived rule.
	ErrFieldLocked = errors.New("field is locked by a derived rule")
	// ErrEngineerMode indicates a field only editable in engineer mode.
	ErrEngineerMode = errors.New("field requires engineer mode")
	// ErrInvalidInput indicates an out-of-domain value.
	ErrInvalidInput = errors.New("invalid wizard input")
	// ErrUnknownDataset indicates the dataset snapshot is not offered.
	ErrUnknownDataset = errors.New("unknown dataset snapshot")
	// ErrBuildRunning indicates navigation is blocked while a build runs.
	ErrBuildRunning = errors.New("build in progress")
	// ErrClosed indicates the wizard was unmounted.
	ErrClosed = errors.New("wizard closed")
)
