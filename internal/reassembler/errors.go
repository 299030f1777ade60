package reassembler

import (
	"fmt"

	"github.com/rohmanhakim/stream-harvester/internal/metadata"
	"github.com/rohmanhakim/stream-harvester/pkg/failure"
)

type ReassemblyErrorCause string

const (
	ErrCauseInvalidJob   ReassemblyErrorCause = "invalid job"
	ErrCauseNoSegments   ReassemblyErrorCause = "no segments"
	ErrCauseWorkspace    ReassemblyErrorCause = "workspace failure"
	ErrCauseSegmentFetch ReassemblyErrorCause = "segment fetch failed"
	ErrCauseSegmentWrite ReassemblyErrorCause = "segment write failed"
	ErrCauseConcatList   ReassemblyErrorCause = "concat list write failed"
	ErrCauseMuxerFailed  ReassemblyErrorCause = "muxer failed"
	ErrCausePromote      ReassemblyErrorCause = "promote output failed"
)

type ReassemblyError struct {
	Message   string
	Retryable bool
	Cause     ReassemblyErrorCause
	Err       error
}

func (e *ReassemblyError) Error() string {
	return fmt.Sprintf("reassembly error: %s: %s", e.Cause, e.Message)
}

func (e *ReassemblyError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *ReassemblyError) Unwrap() error {
	return e.Err
}

// MuxError is a non-zero muxer exit. Output holds the tail of what the
// process printed.
type MuxError struct {
	ExitCode int
	Output   string
	Err      error
}

func (e *MuxError) Error() string {
	return fmt.Sprintf("muxer exited with code %d: %v", e.ExitCode, e.Err)
}

func (e *MuxError) Unwrap() error {
	return e.Err
}

// mapReassemblyErrorToMetadataCause maps reassembler-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapReassemblyErrorToMetadataCause(err *ReassemblyError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseSegmentFetch:
		return metadata.CauseNetworkFailure
	case ErrCauseWorkspace, ErrCauseSegmentWrite, ErrCauseConcatList, ErrCausePromote:
		return metadata.CauseStorageFailure
	case ErrCauseMuxerFailed:
		return metadata.CauseExternalProcess
	case ErrCauseNoSegments, ErrCauseInvalidJob:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
