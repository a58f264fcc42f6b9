package pool

import "context"

// Resource is an opaque handle produced by a Factory, e.g. a database
// client. The pool never looks inside it; ownership is tracked by identity.
type Resource = any

// Factory creates, destroys and probes the expensive handles the pool
// manages. Implementations live behind this boundary so the pool stays
// ignorant of driver semantics beyond connect/disconnect/probe.
type Factory interface {
	// Create returns a connected Resource or an error.
	Create(ctx context.Context) (Resource, error)

	// Disconnect tears down a Resource. Errors are logged and swallowed
	// by the pool - reclamation is always best-effort.
	Disconnect(res Resource) error

	// Probe reports whether the Resource is still live.
	Probe(ctx context.Context, res Resource) bool
}
