package console

import "errors"

var (
	// ErrNotMounted indicates an operation on a screen that is not the mounted tab.
	ErrNotMounted = errors.New("screen not mounted")
	// ErrClosed indicates the console session was torn down.
	ErrClosed = errors.New("console closed")
)
