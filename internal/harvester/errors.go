package harvester

import (
	"fmt"

	"github.com/rohmanhakim/stream-harvester/pkg/failure"
)

type HarvestErrorCause string

const (
	ErrCauseInvalidParams HarvestErrorCause = "invalid params"
	ErrCauseInvalidURL    HarvestErrorCause = "invalid url"
)

type HarvestError struct {
	Message   string
	Retryable bool
	Cause     HarvestErrorCause
}

func (e *HarvestError) Error() string {
	return fmt.Sprintf("harvest error: %s: %s", e.Cause, e.Message)
}

func (e *HarvestError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
