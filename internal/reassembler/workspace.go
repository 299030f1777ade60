package reassembler

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rohmanhakim/stream-harvester/internal/playlist"
	"github.com/rohmanhakim/stream-harvester/pkg/urlutil"
)

const (
	minOrdinalWidth = 5
	concatListName  = "filelist.txt"
)

// Workspace is a job-exclusive scratch directory. Creation fails if the
// directory already exists, so two jobs can never share one.
type Workspace struct {
	dir string
}

func CreateWorkspace(targetDir string, videoID string, createdAt time.Time, suffix string) (Workspace, error) {
	name := fmt.Sprintf("temp_%s_%d_%s", videoID, createdAt.UnixNano(), suffix)
	dir, err := filepath.Abs(filepath.Join(targetDir, name))
	if err != nil {
		return Workspace{}, err
	}
	if err := os.Mkdir(dir, 0755); err != nil {
		return Workspace{}, err
	}
	return Workspace{dir: dir}, nil
}

func (w Workspace) Dir() string {
	return w.dir
}

// SegmentPath names a segment so that a lexicographic listing of the
// workspace reproduces playback order.
func (w Workspace) SegmentPath(ordinal int, width int, segmentURL url.URL) string {
	base := sanitizeBasename(urlutil.Basename(segmentURL))
	if base != "" && playlist.HasSegmentExtension(base) {
		return filepath.Join(w.dir, fmt.Sprintf("%0*d_%s", width, ordinal, base))
	}
	return filepath.Join(w.dir, fmt.Sprintf("%0*d.ts", width, ordinal))
}

func (w Workspace) ConcatListPath() string {
	return filepath.Join(w.dir, concatListName)
}

func (w Workspace) Remove() error {
	return os.RemoveAll(w.dir)
}

// ordinalWidth is the zero-padding needed for n segments, at least 5.
func ordinalWidth(n int) int {
	width := len(fmt.Sprintf("%d", max(n-1, 0)))
	return max(width, minOrdinalWidth)
}

func sanitizeBasename(base string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
}

// ConcatList renders an ffmpeg concat demuxer list. Single quotes inside
// paths are escaped as '\''.
func ConcatList(files []string) string {
	var b strings.Builder
	for _, f := range files {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(f, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}
