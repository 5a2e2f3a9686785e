package dynamo

import (
	"errors"
	"fmt"
)

// Error kinds. Every evaluation failure wraps exactly one of these.
var (
	// ErrConfiguration indicates malformed model data: a missing array, a bad
	// grid, an unrecognized mode count.
	ErrConfiguration = errors.New("dynamo: configuration error")

	// ErrDomain indicates an input outside the model's valid range.
	ErrDomain = errors.New("dynamo: input outside valid domain")

	// ErrPrecondition indicates a violated integrator invariant.
	ErrPrecondition = errors.New("dynamo: numerical precondition violated")
)

// Error wraps an error kind with the operation that detected it.
type Error struct {
	Op     string
	Kind   error
	Detail string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, op, format string, args ...any) error {
	return &Error{Op: op, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Configf returns an ErrConfiguration for op.
func Configf(op, format string, args ...any) error {
	return newError(ErrConfiguration, op, format, args...)
}

// Domainf returns an ErrDomain for op.
func Domainf(op, format string, args ...any) error {
	return newError(ErrDomain, op, format, args...)
}

// Preconditionf returns an ErrPrecondition for op.
func Preconditionf(op, format string, args ...any) error {
	return newError(ErrPrecondition, op, format, args...)
}
