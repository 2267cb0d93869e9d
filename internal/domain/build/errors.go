package build

import "errors"

var (
	// ErrAlreadyRunning indicates Start was called on a running build.
	ErrAlreadyRunning = errors.New("build already running")
	// ErrAlreadyFinished indicates Start was called on a finished build.
	ErrAlreadyFinished = errors.New("build already finished")
	// ErrNotFinished indicates the artifact was requested before the build finished.
	ErrNotFinished = errors.New("build not finished")
	// ErrClosed indicates the runner was torn down.
	ErrClosed = errors.New("build runner closed")
)
