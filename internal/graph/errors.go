package graph

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrParameterSet      = errors.New("parameter names do not match the graph's variables")
	ErrParameterShape    = errors.New("parameter shape does not match its variable")
	ErrParameterDType    = errors.New("parameter data type does not match its variable")
	ErrDuplicateVariable = errors.New("two variables share a name")
	ErrOverwrittenLeaf   = errors.New("leaf data was overwritten in place by an evaluated operation")
)

// ParameterError reports which parameter failed validation.
type ParameterError struct {
	Name    string // Variable name involved
	Err     error  // One of the sentinel errors above
	Details string // Additional details
}

// Error implements the error interface.
func (e *ParameterError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("parameter %q: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("parameter %q: %v: %s", e.Name, e.Err, e.Details)
}

// Unwrap returns the sentinel error.
func (e *ParameterError) Unwrap() error {
	return e.Err
}
