// Package errorcodes defines CLI failures using a structured type.
// ExitError holds the process exit code and a human-readable description.
package errorcodes

import (
	"errors"

	"github.com/andrei-cloud/plugcore/pkg/plugincore"
)

// Predefined CLI failures.
var (
	ErrGeneric  = ExitError{Code: 1, Description: "Command failed"}
	ErrConfig   = ExitError{Code: 2, Description: "Invalid configuration"}
	ErrLoad     = ExitError{Code: 3, Description: "Plugin load failed"}
	ErrNotFound = ExitError{Code: 4, Description: "Command not found"}
	ErrFault    = ExitError{Code: 5, Description: "Command raised a fault"}
)

// ExitError represents a CLI failure with its exit code and description.
type ExitError struct {
	Code        int    // process exit code
	Description string // human-readable description
	Err         error  // underlying cause, optional
}

// Error implements the Go error interface: "<Description>: <cause>".
func (e ExitError) Error() string {
	if e.Err == nil {
		return e.Description
	}

	return e.Description + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e ExitError) Unwrap() error {
	return e.Err
}

// Is matches any ExitError with the same code.
func (e ExitError) Is(target error) bool {
	t, ok := target.(ExitError)

	return ok && t.Code == e.Code
}

// Wrap returns a copy of e carrying err as its cause.
func (e ExitError) Wrap(err error) ExitError {
	e.Err = err

	return e
}

// FromStatus maps a failed invocation status to its CLI failure.
// StatusOK yields nil.
func FromStatus(status plugincore.Status) error {
	switch status {
	case plugincore.StatusOK:
		return nil
	case plugincore.StatusNotFound:
		return ErrNotFound
	case plugincore.StatusFault:
		return ErrFault
	default:
		return ErrGeneric
	}
}

// ExitCode returns the process exit code for err: 0 for nil, the embedded
// code for an ExitError and 1 for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return ErrGeneric.Code
}
