package reassembler

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Job is one reassembly. Its output file name depends only on videoID and
// resolution label, so repeated runs for the same source converge on the
// same path.
type Job struct {
	videoID         string
	targetDir       string
	outputFileName  string
	resolutionLabel string
}

func NewJob(videoID string, targetDir string, resolutionLabel string) (Job, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" || strings.ContainsAny(videoID, `/\`) || videoID == "." || videoID == ".." {
		return Job{}, &ReassemblyError{
			Message: fmt.Sprintf("invalid video id %q", videoID),
			Cause:   ErrCauseInvalidJob,
		}
	}
	if strings.TrimSpace(targetDir) == "" {
		return Job{}, &ReassemblyError{
			Message: "target directory is empty",
			Cause:   ErrCauseInvalidJob,
		}
	}
	return Job{
		videoID:         videoID,
		targetDir:       targetDir,
		outputFileName:  OutputFileName(videoID, resolutionLabel),
		resolutionLabel: resolutionLabel,
	}, nil
}

// OutputFileName is "<videoID>-<label>.mp4", or "<videoID>.mp4" for an
// empty label.
func OutputFileName(videoID string, resolutionLabel string) string {
	label := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, strings.TrimSpace(resolutionLabel))
	if label == "" {
		return videoID + ".mp4"
	}
	return videoID + "-" + label + ".mp4"
}

func (j Job) VideoID() string {
	return j.videoID
}

func (j Job) TargetDir() string {
	return j.targetDir
}

func (j Job) OutputFileName() string {
	return j.outputFileName
}

func (j Job) ResolutionLabel() string {
	return j.resolutionLabel
}

func (j Job) OutputPath() string {
	return filepath.Join(j.targetDir, j.outputFileName)
}

// ConcatSpec is the ordered input of one mux. ListPath is a concat list
// with one entry per file in Files.
type ConcatSpec struct {
	ListPath string
	Files    []string
}

type AssemblyResult struct {
	path     string
	skipped  bool
	segments int
}

func (a AssemblyResult) Path() string {
	return a.path
}

// Skipped is true when the output already existed and nothing was fetched.
func (a AssemblyResult) Skipped() bool {
	return a.skipped
}

// Segments is the number of segments fetched.
func (a AssemblyResult) Segments() int {
	return a.segments
}
