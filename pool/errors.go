package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrAcquireTimeout is returned when no resource became available
	// within the configured acquire timeout.
	ErrAcquireTimeout = errors.New("acquire timed out waiting for an available resource")

	// ErrPoolClosing is delivered to every queued waiter when Close runs.
	ErrPoolClosing = errors.New("pool is closing")

	// ErrNotInitialized is returned by Acquire before Initialize has run.
	ErrNotInitialized = errors.New("pool has not been initialized")
)

// InitializationError wraps the factory error that aborted Initialize or
// Resize growth. It is fatal to that call and never auto-retried.
type InitializationError struct {
	Err error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("pool initialization failed: %v", e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}
