package reassembler_test

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/rohmanhakim/stream-harvester/internal/reassembler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFileName(t *testing.T) {
	tests := []struct {
		name    string
		videoID string
		label   string
		want    string
	}{
		{name: "with label", videoID: "345", label: "720p", want: "345-720p.mp4"},
		{name: "empty label", videoID: "345", label: "", want: "345.mp4"},
		{name: "blank label", videoID: "345", label: "  ", want: "345.mp4"},
		{name: "separator in label", videoID: "345", label: "hd/1", want: "345-hd_1.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reassembler.OutputFileName(tt.videoID, tt.label))
		})
	}
}

func TestNewJob_IsDeterministic(t *testing.T) {
	a, err := reassembler.NewJob("345", "/data/show", "1080p")
	require.NoError(t, err)
	b, err := reassembler.NewJob("345", "/data/show", "1080p")
	require.NoError(t, err)

	assert.Equal(t, a.OutputPath(), b.OutputPath())
	assert.Equal(t, filepath.Join("/data/show", "345-1080p.mp4"), a.OutputPath())
}

func TestNewJob_Invalid(t *testing.T) {
	for _, id := range []string{"", " ", "a/b", `a\b`, "..", "."} {
		_, err := reassembler.NewJob(id, "/data", "")
		var reassemblyErr *reassembler.ReassemblyError
		require.ErrorAs(t, err, &reassemblyErr, "id %q", id)
		assert.Equal(t, reassembler.ErrCauseInvalidJob, reassemblyErr.Cause)
	}

	_, err := reassembler.NewJob("1", "", "")
	assert.Error(t, err)
}

func TestCreateWorkspace_IsExclusive(t *testing.T) {
	dir := t.TempDir()
	at := time.Unix(1700000000, 42)

	ws, err := reassembler.CreateWorkspace(dir, "345", at, "abcd1234")
	require.NoError(t, err)
	assert.DirExists(t, ws.Dir())
	assert.Equal(t, "temp_345_1700000000000000042_abcd1234", filepath.Base(ws.Dir()))
	assert.True(t, filepath.IsAbs(ws.Dir()))

	_, err = reassembler.CreateWorkspace(dir, "345", at, "abcd1234")
	assert.Error(t, err, "same job id, timestamp and suffix must not share a workspace")

	other, err := reassembler.CreateWorkspace(dir, "345", at, "ffff0000")
	require.NoError(t, err)
	assert.NotEqual(t, ws.Dir(), other.Dir())

	require.NoError(t, ws.Remove())
	assert.NoDirExists(t, ws.Dir())
}

func TestWorkspace_SegmentPathsSortInPlaybackOrder(t *testing.T) {
	dir := t.TempDir()
	ws, err := reassembler.CreateWorkspace(dir, "1", time.Now(), "x")
	require.NoError(t, err)

	urls := []string{
		"https://cdn.example/z-last-name.ts",
		"https://cdn.example/segment-7",
		"https://cdn.example/a.m4s?sig=1",
		"https://cdn.example/weird%20name.ts",
	}
	var paths []string
	for i, raw := range urls {
		p := ws.SegmentPath(i, 5, mustParseURL(t, raw))
		paths = append(paths, p)
		require.NoError(t, os.WriteFile(p, []byte{byte(i)}, 0644))
	}

	assert.Equal(t, "00000_z-last-name.ts", filepath.Base(paths[0]))
	assert.Equal(t, "00001.ts", filepath.Base(paths[1]))
	assert.Equal(t, "00002_a.m4s", filepath.Base(paths[2]))
	assert.Equal(t, "00003_weird_name.ts", filepath.Base(paths[3]))

	listed := dirNames(t, ws.Dir())
	sorted := append([]string(nil), listed...)
	sort.Strings(sorted)
	for i, p := range paths {
		assert.Equal(t, filepath.Base(p), sorted[i])
	}
}

func TestConcatList_EscapesQuotes(t *testing.T) {
	list := reassembler.ConcatList([]string{"/tmp/a/00000.ts", "/tmp/it's/00001.ts"})
	assert.Equal(t, "file '/tmp/a/00000.ts'\nfile '/tmp/it'\\''s/00001.ts'\n", list)
}
