package metadata

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, reporting).

	Rules:
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause MUST NOT be used for retry, continuation, or abort decisions.
	 - Pipeline packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown
  - The failure does not map cleanly to any known category.

# CauseNetworkFailure
  - Transport failures, timeouts, non-2xx responses, exhausted retries.

# CauseContentInvalid
  - Content was fetched but could not be processed meaningfully
    (no entity records, a manifest without segments or variants).

# CauseStorageFailure
  - Failure while persisting artifacts or managing the download workspace.

# CauseExternalProcess
  - The muxer (or another child process) failed to start or exited non-zero.
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CauseContentInvalid
	CauseStorageFailure
	CauseExternalProcess
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseStorageFailure:
		return "storage_failure"
	case CauseExternalProcess:
		return "external_process"
	default:
		return "unknown"
	}
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrURL         AttributeKey = "url"
	AttrHost        AttributeKey = "host"
	AttrPage        AttributeKey = "page"
	AttrEntity      AttributeKey = "entity"
	AttrItem        AttributeKey = "item"
	AttrWorker      AttributeKey = "worker"
	AttrTaskGroup   AttributeKey = "task_group"
	AttrHTTPStatus  AttributeKey = "http_status"
	AttrWritePath   AttributeKey = "write_path"
	AttrContentHash AttributeKey = "content_hash"
	AttrResolution  AttributeKey = "resolution"
	AttrMessage     AttributeKey = "message"
	AttrLine        AttributeKey = "line"
)

// ArtifactKind names what kind of file outlived the run.
type ArtifactKind string

const (
	ArtifactLinkList   ArtifactKind = "link_list"
	ArtifactMediaFile  ArtifactKind = "media_file"
	ArtifactConcatList ArtifactKind = "concat_list"
)
