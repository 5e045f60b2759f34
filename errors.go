// Package crucible compiles declarative Algorand application definitions
// into AVM approval and clear-state programs.
package crucible

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions.
var (
	// ErrNoBody indicates a handler was declared without a body fragment.
	ErrNoBody = errors.New("crucible: handler has no body fragment")

	// ErrEmptyName indicates a handler or application name was empty.
	ErrEmptyName = errors.New("crucible: name must not be empty")

	// ErrNilHandler indicates a nil handler was registered.
	ErrNilHandler = errors.New("crucible: nil handler")

	// ErrTooManyMethodArgs indicates a method signature declares more
	// arguments than a single application call can carry (max 15).
	ErrTooManyMethodArgs = errors.New("crucible: too many method arguments (max 15)")

	// ErrNoActions indicates a handler's completion action set is empty.
	ErrNoActions = errors.New("crucible: handler allows no completion actions")

	// ErrInvalidAction indicates a completion action outside the routable set.
	ErrInvalidAction = errors.New("crucible: completion action is not routable")

	// ErrClearStateHandler indicates a non-bare handler was installed as the
	// clear-state program.
	ErrClearStateHandler = errors.New("crucible: clear-state handler must be a bare handler")

	// ErrReservedKeys indicates a reserved state block declares a
	// non-positive key count.
	ErrReservedKeys = errors.New("crucible: reserved key count must be at least 1")

	// ErrDefaultKindMismatch indicates a state default of the wrong kind.
	ErrDefaultKindMismatch = errors.New("crucible: state default does not match the declared kind")

	// ErrNotMethod indicates an operation that needs a method handler was
	// attempted on a bare handler.
	ErrNotMethod = errors.New("crucible: operation requires a method handler")

	// ErrArgumentCount indicates a call supplied the wrong number of
	// arguments for the method signature.
	ErrArgumentCount = errors.New("crucible: wrong number of arguments")

	// ErrReturnPrefix indicates a log entry without the method return marker.
	ErrReturnPrefix = errors.New("crucible: log entry is not a method return")

	// ErrNilValue indicates a nil state declaration.
	ErrNilValue = errors.New("crucible: nil state value")

	// ErrExtraPages indicates an extra page request beyond the platform
	// maximum.
	ErrExtraPages = errors.New("crucible: extra pages exceed platform maximum")
)

// DuplicateStateKeyError indicates two state declarations in the same scope
// share a storage key.
type DuplicateStateKeyError struct {
	Scope StateScope
	Key   string
}

func (e *DuplicateStateKeyError) Error() string {
	return fmt.Sprintf("crucible: duplicate %s state key %q", e.Scope, e.Key)
}

// SchemaOverflowError indicates the declared state exceeds what the
// platform allocates for the scope.
type SchemaOverflowError struct {
	Scope StateScope
	Count uint64
	Max   uint64
}

func (e *SchemaOverflowError) Error() string {
	return fmt.Sprintf("crucible: %s schema needs %d entries, platform allows %d", e.Scope, e.Count, e.Max)
}

// DuplicateHandlerError indicates two handlers were registered under the
// same name.
type DuplicateHandlerError struct {
	Name string
}

func (e *DuplicateHandlerError) Error() string {
	return fmt.Sprintf("crucible: handler %q registered more than once", e.Name)
}

// AmbiguousRouteError indicates two handlers expand to the same route key,
// so a matching transaction could not be dispatched deterministically.
type AmbiguousRouteError struct {
	Key    RouteKey
	First  string
	Second string
}

func (e *AmbiguousRouteError) Error() string {
	return fmt.Sprintf("crucible: route %s claimed by both %q and %q", e.Key, e.First, e.Second)
}

// UnsupportedArgumentTypeError indicates a method signature uses a type
// outside the compilable set. A negative index refers to the return type.
type UnsupportedArgumentTypeError struct {
	Handler string
	Index   int
	Type    string
}

func (e *UnsupportedArgumentTypeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("crucible: handler %q: unsupported return type %q", e.Handler, e.Type)
	}
	return fmt.Sprintf("crucible: handler %q: argument %d has unsupported type %q", e.Handler, e.Index, e.Type)
}

// ProgramTooLargeError indicates an assembled program exceeds the platform
// size allowance.
type ProgramTooLargeError struct {
	Program string
	Size    int
	Limit   int
}

func (e *ProgramTooLargeError) Error() string {
	return fmt.Sprintf("crucible: %s program is %d bytes, limit %d", e.Program, e.Size, e.Limit)
}

// ArgumentError indicates an issue with one argument of a method call.
type ArgumentError struct {
	Handler string
	Index   int
	Err     error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("crucible: argument %d for handler %q: %v", e.Index, e.Handler, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// StateValueError wraps errors raised by a single state declaration.
type StateValueError struct {
	Key string
	Err error
}

func (e *StateValueError) Error() string {
	return fmt.Sprintf("crucible: state value %q: %v", e.Key, e.Err)
}

func (e *StateValueError) Unwrap() error {
	return e.Err
}

// HandlerError wraps errors raised while validating or compiling a handler.
type HandlerError struct {
	Handler string
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("crucible: handler %q: %v", e.Handler, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}
