package reassembler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rohmanhakim/stream-harvester/internal/fetcher"
	"github.com/rohmanhakim/stream-harvester/internal/metadata"
	"github.com/rohmanhakim/stream-harvester/internal/playlist"
	"github.com/rohmanhakim/stream-harvester/pkg/failure"
	"github.com/rohmanhakim/stream-harvester/pkg/fileutil"
	"github.com/rohmanhakim/stream-harvester/pkg/retry"
)

/*
Responsibilities
- Skip jobs whose output already exists, without touching the network
- Fetch segments one by one, in ordinal order, into a job-exclusive workspace
- Hand the ordered concat list to the Muxer
- Promote the muxed file over the target with a rename

Guarantees
- Any segment failure aborts the job; there is no partial output
- The workspace is removed on every exit path
- A failed mux never leaves its temporary output behind
*/

const progressEvery = 25

type Reassembler struct {
	metadataSink metadata.MetadataSink
	fetcher      fetcher.Fetcher
	muxer        Muxer
	retryParam   retry.RetryParam
	now          func() time.Time
	newSuffix    func() string
}

func NewReassembler(
	metadataSink metadata.MetadataSink,
	segmentFetcher fetcher.Fetcher,
	muxer Muxer,
	retryParam retry.RetryParam,
) Reassembler {
	return Reassembler{
		metadataSink: metadataSink,
		fetcher:      segmentFetcher,
		muxer:        muxer,
		retryParam:   retryParam,
		now:          time.Now,
		newSuffix: func() string {
			return uuid.NewString()[:8]
		},
	}
}

func (r *Reassembler) Assemble(
	ctx context.Context,
	job Job,
	segments []playlist.SegmentRef,
	referer string,
) (AssemblyResult, failure.ClassifiedError) {
	result, err := r.assemble(ctx, job, segments, referer)
	if err != nil {
		r.metadataSink.RecordError(
			time.Now(),
			"reassembler",
			"Reassembler.Assemble",
			mapReassemblyErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrWritePath, job.OutputPath()),
			},
		)
		return AssemblyResult{}, err
	}
	return result, nil
}

func (r *Reassembler) assemble(
	ctx context.Context,
	job Job,
	segments []playlist.SegmentRef,
	referer string,
) (AssemblyResult, *ReassemblyError) {
	outputPath := job.OutputPath()

	exists, statErr := fileutil.Exists(outputPath)
	if statErr != nil {
		return AssemblyResult{}, &ReassemblyError{
			Message: statErr.Error(),
			Cause:   ErrCauseWorkspace,
			Err:     statErr,
		}
	}
	if exists {
		r.metadataSink.RecordArtifact(
			metadata.ArtifactMediaFile,
			outputPath,
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrMessage, "output already exists, skipped"),
				metadata.NewAttr(metadata.AttrResolution, job.ResolutionLabel()),
			},
		)
		return AssemblyResult{path: outputPath, skipped: true}, nil
	}

	if len(segments) == 0 {
		return AssemblyResult{}, &ReassemblyError{
			Message: "nothing to assemble",
			Cause:   ErrCauseNoSegments,
		}
	}

	if dirErr := fileutil.EnsureDir(job.TargetDir()); dirErr != nil {
		return AssemblyResult{}, &ReassemblyError{
			Message: dirErr.Error(),
			Cause:   ErrCauseWorkspace,
			Err:     dirErr,
		}
	}

	suffix := r.newSuffix()
	workspace, wsErr := CreateWorkspace(job.TargetDir(), job.VideoID(), r.now(), suffix)
	if wsErr != nil {
		return AssemblyResult{}, &ReassemblyError{
			Message: wsErr.Error(),
			Cause:   ErrCauseWorkspace,
			Err:     wsErr,
		}
	}
	defer func() {
		if removeErr := workspace.Remove(); removeErr != nil {
			r.metadataSink.RecordWarning(
				"reassembler",
				"Workspace.Remove",
				removeErr.Error(),
				[]metadata.Attribute{
					metadata.NewAttr(metadata.AttrWritePath, workspace.Dir()),
				},
			)
		}
	}()

	files, err := r.fetchSegments(ctx, workspace, segments, referer)
	if err != nil {
		return AssemblyResult{}, err
	}

	spec := ConcatSpec{ListPath: workspace.ConcatListPath(), Files: files}
	if writeErr := os.WriteFile(spec.ListPath, []byte(ConcatList(files)), 0644); writeErr != nil {
		return AssemblyResult{}, &ReassemblyError{
			Message: writeErr.Error(),
			Cause:   ErrCauseConcatList,
			Err:     writeErr,
		}
	}

	stem := strings.TrimSuffix(job.OutputFileName(), filepath.Ext(job.OutputFileName()))
	tempOutput := filepath.Join(job.TargetDir(), fmt.Sprintf(".%s.partial-%s.mp4", stem, suffix))

	if muxErr := r.muxer.Mux(ctx, spec, tempOutput); muxErr != nil {
		_ = os.Remove(tempOutput)
		message := muxErr.Error()
		var exitErr *MuxError
		if errors.As(muxErr, &exitErr) && exitErr.Output != "" {
			message += ": " + exitErr.Output
		}
		return AssemblyResult{}, &ReassemblyError{
			Message: message,
			Cause:   ErrCauseMuxerFailed,
			Err:     muxErr,
		}
	}

	if renameErr := os.Rename(tempOutput, outputPath); renameErr != nil {
		_ = os.Remove(tempOutput)
		return AssemblyResult{}, &ReassemblyError{
			Message: renameErr.Error(),
			Cause:   ErrCausePromote,
			Err:     renameErr,
		}
	}

	r.metadataSink.RecordArtifact(
		metadata.ArtifactMediaFile,
		outputPath,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrResolution, job.ResolutionLabel()),
		},
	)
	return AssemblyResult{path: outputPath, segments: len(files)}, nil
}

// fetchSegments downloads strictly in ordinal order and returns the
// absolute file paths in that order.
func (r *Reassembler) fetchSegments(
	ctx context.Context,
	workspace Workspace,
	segments []playlist.SegmentRef,
	referer string,
) ([]string, *ReassemblyError) {
	ordered := make([]playlist.SegmentRef, len(segments))
	copy(ordered, segments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Ordinal < ordered[j].Ordinal
	})

	total := len(ordered)
	width := ordinalWidth(total)
	files := make([]string, 0, total)

	for i, segment := range ordered {
		request := fetcher.NewFetchRequest(segment.URL, fetcher.WithReferer(referer))
		fetchResult, fetchErr := r.fetcher.Fetch(ctx, request, r.retryParam)
		if fetchErr != nil {
			return nil, &ReassemblyError{
				Message: fmt.Sprintf("segment %d of %d: %v", i+1, total, fetchErr),
				Cause:   ErrCauseSegmentFetch,
				Err:     fetchErr,
			}
		}

		path := workspace.SegmentPath(i, width, segment.URL)
		if writeErr := os.WriteFile(path, fetchResult.Body(), 0644); writeErr != nil {
			return nil, &ReassemblyError{
				Message: writeErr.Error(),
				Cause:   ErrCauseSegmentWrite,
				Err:     writeErr,
			}
		}
		files = append(files, path)

		done := i + 1
		if done == 1 || done == total || done%progressEvery == 0 {
			r.metadataSink.RecordProgress("segments", done, total)
		}
	}
	return files, nil
}
