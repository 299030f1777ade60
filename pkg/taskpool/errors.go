package taskpool

import (
	"fmt"

	"github.com/rohmanhakim/stream-harvester/pkg/failure"
)

// PanicError wraps a value recovered from a panicking handler.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("taskpool: handler panicked: %v", e.Value)
}

func (e *PanicError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}
