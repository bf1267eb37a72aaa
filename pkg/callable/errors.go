package callable

import "errors"

var (
	// ErrInvalidCallableShape is returned when a value matches none of the
	// known callable representations.
	ErrInvalidCallableShape = errors.New("invalid callable shape")

	// ErrUnknownMethod is returned by providers that cannot resolve a
	// function or method.
	ErrUnknownMethod = errors.New("unknown method")

	// ErrReceiverTypeMismatch is returned when a receiver is not an instance
	// of the method's owning type.
	ErrReceiverTypeMismatch = errors.New("receiver type mismatch")

	// ErrNotInvocable is returned by targets that only describe a function
	// (for example one read from source) and cannot run it.
	ErrNotInvocable = errors.New("target is not invocable")

	// ErrArgumentMismatch is returned when arguments cannot be bound to the
	// target's parameters.
	ErrArgumentMismatch = errors.New("argument mismatch")
)
