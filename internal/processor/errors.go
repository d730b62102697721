package processor

import (
	"errors"
	"fmt"
)

var (
	// ErrLookup matches any LookupError.
	ErrLookup = errors.New("processing function unavailable")
	// ErrExecution matches any ExecutionError.
	ErrExecution = errors.New("processing function failed")
	// ErrFunctionNotFound is wrapped by a LookupError when the runtime does
	// not know the function.
	ErrFunctionNotFound = errors.New("function not found or not deployed")
)

// LookupError reports that the function could not be reached: either the
// runtime does not know it or the runtime itself is unreachable.
type LookupError struct {
	Function Function
	Err      error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %s: %v", e.Function, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

func (e *LookupError) Is(target error) bool { return target == ErrLookup }

// ExecutionError reports that the function was found but the call did not
// produce a result.
type ExecutionError struct {
	Function Function
	CallID   string
	Message  string
	Err      error
}

func (e *ExecutionError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.CallID != "" {
		return fmt.Sprintf("%s call %s failed: %s", e.Function, e.CallID, msg)
	}
	return fmt.Sprintf("%s failed: %s", e.Function, msg)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }
