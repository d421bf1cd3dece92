package forecast

import (
	"errors"
	"fmt"
)

// ErrModelNotTrained is returned when inference is requested before any
// training run has completed. Callers are expected to degrade rather than
// fail the surrounding request.
var ErrModelNotTrained = errors.New("no trained demand model available")

// InsufficientDataError is returned when training is attempted with fewer
// completed sessions than the configured minimum. Training never silently
// degrades to a trivial model.
type InsufficientDataError struct {
	Rows int
	Min  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient training data: %d completed sessions, need at least %d", e.Rows, e.Min)
}
