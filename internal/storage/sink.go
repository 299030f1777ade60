package storage

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/rohmanhakim/stream-harvester/internal/metadata"
	"github.com/rohmanhakim/stream-harvester/pkg/failure"
	"github.com/rohmanhakim/stream-harvester/pkg/fileutil"
	"github.com/rohmanhakim/stream-harvester/pkg/hashutil"
)

/*
Responsibilities
- Persist one link list per entity
- Derive deterministic filenames from the entity's display name
- Write a sentinel when nothing resolved

Output Characteristics
- <outputDir>/<slug>.txt, one URL per line, UTF-8
- Atomic writes (temp file + rename)
- Overwrite-safe reruns
*/

type LinkSink interface {
	Write(
		outputDir string,
		entityName string,
		urls []string,
		hashAlgo hashutil.HashAlgo,
	) (WriteResult, failure.ClassifiedError)
}

type LocalSink struct {
	metadataSink metadata.MetadataSink
}

func NewLocalSink(
	metadataSink metadata.MetadataSink,
) LocalSink {
	return LocalSink{
		metadataSink: metadataSink,
	}
}

func (s *LocalSink) Write(
	outputDir string,
	entityName string,
	urls []string,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, failure.ClassifiedError) {
	writeResult, err := write(outputDir, entityName, urls, hashAlgo)
	if err != nil {
		var storageError *StorageError
		errors.As(err, &storageError)
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"LocalSink.Write",
			mapStorageErrorToMetadataCause(storageError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrEntity, entityName),
				metadata.NewAttr(metadata.AttrWritePath, storageError.Path),
			},
		)
		return WriteResult{}, storageError
	}
	s.metadataSink.RecordArtifact(
		metadata.ArtifactLinkList,
		writeResult.Path(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrEntity, entityName),
			metadata.NewAttr(metadata.AttrWritePath, writeResult.Path()),
			metadata.NewAttr(metadata.AttrContentHash, writeResult.ContentHash()),
		},
	)
	return writeResult, nil
}

func write(
	outputDir string,
	entityName string,
	urls []string,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, failure.ClassifiedError) {
	slug := Slugify(entityName)
	if slug == "" {
		// names made only of punctuation or non-ASCII letters
		nameHash, err := hashutil.ShortHash([]byte(entityName), hashAlgo, 12)
		if err != nil {
			return WriteResult{}, &StorageError{
				Message:   err.Error(),
				Retryable: false,
				Cause:     ErrCauseHashComputationFailed,
			}
		}
		slug = "entity-" + nameHash
	}

	content, sentinel := renderLinkList(urls)

	contentHash, err := hashutil.HashBytes(content, hashAlgo)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseHashComputationFailed,
		}
	}

	if err := fileutil.EnsureDir(outputDir); err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCausePathError,
			Path:      outputDir,
		}
	}

	fullPath := filepath.Join(outputDir, slug+".txt")
	if err := fileutil.WriteFileAtomic(fullPath, content, 0644); err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseWriteFailure,
			Path:      fullPath,
		}
	}

	lines := len(urls)
	if sentinel {
		lines = 0
	}
	return NewWriteResult(slug, fullPath, contentHash, lines, sentinel), nil
}

func renderLinkList(urls []string) ([]byte, bool) {
	if len(urls) == 0 {
		return []byte(SentinelText + "\n"), true
	}
	var b strings.Builder
	for _, u := range urls {
		b.WriteString(u)
		b.WriteString("\n")
	}
	return []byte(b.String()), false
}
