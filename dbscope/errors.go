package dbscope

import (
	"errors"
	"strconv"
)

var (
	// ErrNoProvider is returned by Enter when no factory was supplied
	// explicitly and no process-wide default is registered for the handle
	// type. Nothing has been acquired when this is returned.
	ErrNoProvider = errors.New("dbscope: no provider configured")

	// ErrNotAFunction is returned by Wrap when the decoration target is not
	// a function value.
	ErrNotAFunction = errors.New("dbscope: wrap target is not a function")

	// ErrNoErrorResult is returned by Wrap when the decoration target does
	// not return error as its last result. Without an error slot the wrapper
	// would have nowhere to surface commit and rollback failures.
	ErrNoErrorResult = errors.New("dbscope: wrapped function must return error as its last result")

	// ErrNilReceiver is returned when a field-injected method is called on a
	// nil receiver.
	ErrNilReceiver = errors.New("dbscope: nil receiver for field injection")
)

// AnnotationError is returned when a decoration target does not declare
// exactly one injection point of the handle type: a function with zero or
// several handle-typed parameters and, for the receiver fallback, a struct
// with zero or several handle-typed fields.
type AnnotationError struct {
	// Target is the type of the inspected function or receiver struct.
	Target string

	// Count is the number of handle-typed injection points found.
	Count int
}

// Error implements the error interface.
func (e AnnotationError) Error() string {
	// Example: dbscope: target "*billing.Service" declares 2 handle injection points, want exactly one
	return "dbscope: target " + strconv.Quote(e.Target) +
		" declares " + strconv.Itoa(e.Count) + " handle injection points, want exactly one"
}

// DirectInjectionError is returned when a caller passes a concrete value for
// the injected argument. The handle is never something a caller may supply:
// the argument must be left as the zero value.
type DirectInjectionError struct {
	// Target is the type of the wrapped function.
	Target string

	// Position is the index of the injected argument.
	Position int
}

// Error implements the error interface.
func (e DirectInjectionError) Error() string {
	// Example: dbscope: do not pass the handle to "func(context.Context, pgx.Tx) error" directly; argument 1 is injected
	return "dbscope: do not pass the handle to " + strconv.Quote(e.Target) +
		" directly; argument " + strconv.Itoa(e.Position) + " is injected"
}

// BindingConflictError is returned when the receiver's injection field is
// already set at call time. This is the reentrancy guard: a decorated method
// calling another decorated method on the same receiver would otherwise
// silently overwrite the outer scope's handle.
type BindingConflictError struct {
	// Receiver is the type of the receiver struct.
	Receiver string

	// Field is the name of the already-bound field.
	Field string
}

// Error implements the error interface.
func (e BindingConflictError) Error() string {
	// Example: dbscope: field "tx" of "billing.Service" already holds a handle; nested scoped calls on one receiver are not allowed
	return "dbscope: field " + strconv.Quote(e.Field) + " of " + strconv.Quote(e.Receiver) +
		" already holds a handle; nested scoped calls on one receiver are not allowed"
}

// UnsupportedTargetError is returned when the single injection point found
// cannot be used: an unexported receiver field the resolver is unable to set.
// The target is reported rather than silently skipped.
type UnsupportedTargetError struct {
	// Receiver is the type of the receiver struct.
	Receiver string

	// Field is the name of the unusable field.
	Field string
}

// Error implements the error interface.
func (e UnsupportedTargetError) Error() string {
	// Example: dbscope: field "tx" of "billing.Service" is an injection target but is not settable; export it
	return "dbscope: field " + strconv.Quote(e.Field) + " of " + strconv.Quote(e.Receiver) +
		" is an injection target but is not settable; export it"
}

// PanicError marks a rollback forced by a panic inside the scoped body. The
// panic is re-raised unchanged after teardown completes; PanicError is only
// ever observed by the factory's Finish function.
type PanicError struct {
	// Value is the recovered panic value.
	Value any
}

// Error implements the error interface.
func (e PanicError) Error() string {
	return "dbscope: panic in scoped body"
}
