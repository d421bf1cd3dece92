package planner

import "fmt"

// InvalidInputError rejects a planning request before any computation. The
// field names the part of the request that failed validation.
type InvalidInputError struct {
	Field string
	Err   error
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *InvalidInputError) Unwrap() error { return e.Err }
