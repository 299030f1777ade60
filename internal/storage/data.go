package storage

// Persistence

// SentinelText is written instead of an empty link list so every entity
// leaves exactly one artifact behind.
const SentinelText = "no target URLs were resolved successfully"

type WriteResult struct {
	slug        string // identity (filename without extension)
	path        string
	contentHash string
	lines       int
	sentinel    bool
}

func NewWriteResult(
	slug string,
	path string,
	contentHash string,
	lines int,
	sentinel bool,
) WriteResult {
	return WriteResult{
		slug:        slug,
		path:        path,
		contentHash: contentHash,
		lines:       lines,
		sentinel:    sentinel,
	}
}

func (w *WriteResult) Slug() string {
	return w.slug
}

func (w *WriteResult) Path() string {
	return w.path
}

func (w *WriteResult) ContentHash() string {
	return w.contentHash
}

// Lines is the number of URLs written; zero for a sentinel artifact.
func (w *WriteResult) Lines() int {
	return w.lines
}

func (w *WriteResult) IsSentinel() bool {
	return w.sentinel
}
