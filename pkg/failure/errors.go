package failure

type Severity int

// pipeline control flow
const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

// ClassifiedError is the error contract shared by every pipeline stage.
// Fatal errors end the current job; recoverable ones may be retried or
// isolated by the caller.
type ClassifiedError interface {
	error
	Severity() Severity
}

// IsFatal reports whether err is a ClassifiedError with fatal severity.
// Unclassified errors are treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if c, ok := err.(ClassifiedError); ok {
		return c.Severity() == SeverityFatal
	}
	return true
}
