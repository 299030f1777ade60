package download

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rohmanhakim/stream-harvester/internal/manifest"
	"github.com/rohmanhakim/stream-harvester/internal/metadata"
	"github.com/rohmanhakim/stream-harvester/internal/playlist"
	"github.com/rohmanhakim/stream-harvester/internal/reassembler"
	"github.com/rohmanhakim/stream-harvester/pkg/failure"
)

var videoSlugPattern = regexp.MustCompile(`^(\d+)-(.+)$`)

// ParsePageURL reads entity and video identifiers from a player page path
// of the form /<a>/<b>/<entityId>/<videoId>-<entityName>/<file>.
func ParsePageURL(pageURL url.URL) (PageInfo, error) {
	info, err := parsePageURL(pageURL)
	if err != nil {
		return PageInfo{}, err
	}
	return info, nil
}

func parsePageURL(pageURL url.URL) (PageInfo, *DownloadError) {
	var parts []string
	for _, p := range strings.Split(pageURL.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 5 {
		return PageInfo{}, invalidPageURL(pageURL, "expected at least 5 path segments")
	}

	m := videoSlugPattern.FindStringSubmatch(parts[3])
	if m == nil {
		return PageInfo{}, invalidPageURL(pageURL, fmt.Sprintf("segment %q is not <videoId>-<name>", parts[3]))
	}
	name := m[2]
	if name == "." || name == ".." {
		return PageInfo{}, invalidPageURL(pageURL, "entity name is not a usable directory name")
	}

	return PageInfo{
		EntityID:   parts[2],
		VideoID:    m[1],
		EntityName: name,
	}, nil
}

func invalidPageURL(pageURL url.URL, reason string) *DownloadError {
	return &DownloadError{
		Message:   fmt.Sprintf("%s: %s", pageURL.String(), reason),
		Retryable: false,
		Cause:     ErrCauseInvalidPageURL,
	}
}

type ResolutionPipeline interface {
	Resolve(ctx context.Context, pageURL url.URL) (manifest.Resolution, failure.ClassifiedError)
}

type Assembler interface {
	Assemble(
		ctx context.Context,
		job reassembler.Job,
		segments []playlist.SegmentRef,
		referer string,
	) (reassembler.AssemblyResult, failure.ClassifiedError)
}

/*
Service turns one page URL into one local media file.

  - derive the target directory from the page URL (fail fast when it
    does not parse)
  - resolve the manifest chain to an ordered segment list and a label
  - build the deterministic job and hand it to the reassembler

The existing-output check runs after manifest resolution because the
file name depends on the resolved label; the reassembler itself makes no
network call when the output already exists.
*/
type Service struct {
	metadataSink metadata.MetadataSink
	pipeline     ResolutionPipeline
	assembler    Assembler
}

func NewService(
	metadataSink metadata.MetadataSink,
	pipeline ResolutionPipeline,
	assembler Assembler,
) Service {
	return Service{
		metadataSink: metadataSink,
		pipeline:     pipeline,
		assembler:    assembler,
	}
}

func (s *Service) Download(ctx context.Context, pageURL url.URL, outputBase string) (reassembler.AssemblyResult, failure.ClassifiedError) {
	info, parseErr := parsePageURL(pageURL)
	if parseErr != nil {
		return reassembler.AssemblyResult{}, parseErr
	}
	targetDir := filepath.Join(outputBase, info.EntityName)

	resolution, resolveErr := s.pipeline.Resolve(ctx, pageURL)
	if resolveErr != nil {
		return reassembler.AssemblyResult{}, resolveErr
	}

	job, jobErr := reassembler.NewJob(info.VideoID, targetDir, resolution.ResolutionLabel)
	if jobErr != nil {
		return reassembler.AssemblyResult{}, &DownloadError{
			Message: jobErr.Error(),
			Cause:   ErrCauseInvalidJob,
		}
	}

	s.metadataSink.RecordProgress("download "+job.OutputFileName(), 0, len(resolution.Segments))
	return s.assembler.Assemble(ctx, job, resolution.Segments, resolution.Referer)
}
