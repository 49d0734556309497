package bridge

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrMissingCallback is returned by DeclareCallbacks when a mandatory
	// slot is not set.
	ErrMissingCallback = errors.New("mandatory callback not set")
	// ErrInvalidArgument is returned for nil tables, null roots and
	// unknown encodings.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrParserEnded is returned when a parser is fed or ended after End.
	ErrParserEnded = errors.New("parser already ended")
	// ErrParserDestroyed is returned by every operation after Destroy.
	ErrParserDestroyed = errors.New("parser destroyed")
	// ErrParserPoisoned is returned after an earlier call on the parser
	// failed. The parser can only be destroyed.
	ErrParserPoisoned = errors.New("parser poisoned by an earlier failure")
	// ErrNameDestroyed is returned when a qualified name is destroyed twice.
	ErrNameDestroyed = errors.New("qualified name already destroyed")
	// ErrInternal is the cause of every error built from a recovered panic.
	ErrInternal = errors.New("internal fault")
)

// ContractError reports a host callback that broke the callback contract:
// a null identity where a node was required, a negative status or a handle
// released twice.
type ContractError struct {
	Op     string
	Status Status
	Err    error
}

func (e *ContractError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("callback contract violated in %s (status %d): %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("callback contract violated in %s: %v", e.Op, e.Err)
}

// Cause lets errors.Cause see the underlying failure.
func (e *ContractError) Cause() error { return e.Err }

// Unwrap supports the standard library errors package.
func (e *ContractError) Unwrap() error { return e.Err }

var (
	errNullIdentity  = errors.New("callback returned a null node")
	errFailureStatus = errors.New("callback reported failure")
	errDoubleRelease = errors.New("handle released twice")
	errUseAfterFree  = errors.New("handle used after release")
	errNoElementName = errors.New("handle has no element name")
	errNameSetTwice  = errors.New("element name already set")
)

// violation aborts the current sink operation. The panic is turned back
// into an error by the boundary of the enclosing entry point.
func violation(op string, status Status, err error) {
	panic(&ContractError{Op: op, Status: status, Err: err})
}

// IsContractViolation reports whether err was caused by a host callback
// breaking the callback contract.
func IsContractViolation(err error) bool {
	var ce *ContractError
	return errors.As(err, &ce)
}
