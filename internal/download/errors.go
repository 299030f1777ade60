package download

import (
	"fmt"

	"github.com/rohmanhakim/stream-harvester/pkg/failure"
)

type DownloadErrorCause string

const (
	ErrCauseInvalidPageURL DownloadErrorCause = "invalid page url"
	ErrCauseInvalidJob     DownloadErrorCause = "invalid job"
)

type DownloadError struct {
	Message   string
	Retryable bool
	Cause     DownloadErrorCause
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download error: %s: %s", e.Cause, e.Message)
}

func (e *DownloadError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
