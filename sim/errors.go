package sim

import "errors"

// Sentinel errors shared by the scheduling packages. Callers match them with
// errors.Is; every function wraps them with context.
var (
	// ErrInvalidArgument reports a nil handle, an unknown id or an out-of-range parameter.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidState reports a representation state outside the ladder.
	ErrInvalidState = errors.New("invalid representation state")

	// ErrInvalidRepresentable reports an object that cannot participate in scheduling.
	ErrInvalidRepresentable = errors.New("invalid representable")

	// ErrCapacity reports a bounded buffer refusing a write. The structure is unchanged.
	ErrCapacity = errors.New("capacity exhausted")
)
