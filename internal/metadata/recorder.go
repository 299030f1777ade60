package metadata

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

/*
Metadata Collected
- Fetch outcomes (status, attempts, duration)
- Retry warnings and terminal errors
- Persisted artifacts
- Segment download progress

Metadata is write-only.
No component may read metadata to influence harvest or download decisions.
*/

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordWarning(
		packageName string,
		action string,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		attempts int,
	)

	// RecordRetry is emitted once per failed fetch attempt.
	RecordRetry(
		fetchUrl string,
		attempt int,
		maxAttempts int,
		details string,
	)

	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)

	RecordProgress(stage string, done int, total int)
}

type HarvestFinalizer interface {
	// RecordFinalHarvestStats MUST be called exactly once per harvest,
	// after the last page was processed.
	RecordFinalHarvestStats(
		totalPages int,
		totalEntities int,
		totalResolved int,
		totalFailures int,
		duration time.Duration,
	)
}

/*
Recorder captures structured events and writes them through logrus.
It must not:
- perform I/O decisions
- affect control flow
Ordering guarantees:
- Events from one goroutine are written in the order they are received.
- No global ordering across pool workers is guaranteed.
*/
type Recorder struct {
	logger   *logrus.Logger
	workerId string
}

// NewRecorder builds a Recorder writing text logs to out.
// debug lowers the level so fetch and progress events are shown.
func NewRecorder(workerId string, out io.Writer, debug bool) Recorder {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	logger.SetLevel(logrus.InfoLevel)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	return NewRecorderWithLogger(workerId, logger)
}

func NewRecorderWithLogger(workerId string, logger *logrus.Logger) Recorder {
	return Recorder{
		logger:   logger,
		workerId: workerId,
	}
}

func (r *Recorder) entry(attrs []Attribute) *logrus.Entry {
	fields := logrus.Fields{"worker_id": r.workerId}
	for _, attr := range attrs {
		fields[string(attr.Key)] = attr.Value
	}
	return r.logger.WithFields(fields)
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	r.entry(attrs).
		WithTime(observedAt).
		WithField("package", packageName).
		WithField("action", action).
		WithField("cause", cause.String()).
		Error(errorString)
}

func (r *Recorder) RecordWarning(
	packageName string,
	action string,
	details string,
	attrs []Attribute,
) {
	r.entry(attrs).
		WithField("package", packageName).
		WithField("action", action).
		Warn(details)
}

func (r *Recorder) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	attempts int,
) {
	r.entry(nil).WithFields(logrus.Fields{
		"url":         fetchUrl,
		"http_status": httpStatus,
		"duration_ms": duration.Milliseconds(),
		"attempts":    attempts,
	}).Debug("fetch completed")
}

func (r *Recorder) RecordRetry(
	fetchUrl string,
	attempt int,
	maxAttempts int,
	details string,
) {
	r.entry(nil).WithFields(logrus.Fields{
		"url":          fetchUrl,
		"attempt":      attempt,
		"max_attempts": maxAttempts,
	}).Warn("fetch attempt failed: " + details)
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	r.entry(attrs).
		WithField("kind", string(kind)).
		WithField("path", path).
		Info("artifact written")
}

func (r *Recorder) RecordProgress(stage string, done int, total int) {
	r.entry(nil).WithFields(logrus.Fields{
		"stage": stage,
		"done":  done,
		"total": total,
	}).Info("progress")
}

func (r *Recorder) RecordFinalHarvestStats(
	totalPages int,
	totalEntities int,
	totalResolved int,
	totalFailures int,
	duration time.Duration,
) {
	r.entry(nil).WithFields(logrus.Fields{
		"pages":       totalPages,
		"entities":    totalEntities,
		"resolved":    totalResolved,
		"failures":    totalFailures,
		"duration_ms": duration.Milliseconds(),
	}).Info("harvest finished")
}

// NoopSink implements MetadataSink and HarvestFinalizer but does nothing.
// Tests embed it and override only the events they care about.
type NoopSink struct{}

func (n *NoopSink) RecordError(time.Time, string, string, ErrorCause, string, []Attribute) {}

func (n *NoopSink) RecordWarning(string, string, string, []Attribute) {}

func (n *NoopSink) RecordFetch(string, int, time.Duration, int) {}

func (n *NoopSink) RecordRetry(string, int, int, string) {}

func (n *NoopSink) RecordArtifact(ArtifactKind, string, []Attribute) {}

func (n *NoopSink) RecordProgress(string, int, int) {}

func (n *NoopSink) RecordFinalHarvestStats(int, int, int, int, time.Duration) {}
