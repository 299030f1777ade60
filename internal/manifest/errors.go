package manifest

import (
	"fmt"

	"github.com/rohmanhakim/stream-harvester/internal/metadata"
	"github.com/rohmanhakim/stream-harvester/pkg/failure"
)

type ManifestErrorCause string

const (
	ErrCauseNoSegments       ManifestErrorCause = "no segments found"
	ErrCauseManifestNotFound ManifestErrorCause = "manifest not found"
	ErrCauseNoVariant        ManifestErrorCause = "no usable variant"
)

type ManifestError struct {
	Message   string
	Retryable bool
	Cause     ManifestErrorCause
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest error: %s: %s", e.Cause, e.Message)
}

func (e *ManifestError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapManifestErrorToMetadataCause maps manifest-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapManifestErrorToMetadataCause(err *ManifestError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseNoSegments, ErrCauseManifestNotFound, ErrCauseNoVariant:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
