package manifest_test

import (
	"testing"

	"github.com/rohmanhakim/stream-harvester/internal/manifest"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1280x720", "720p"},
		{"1920X1080", "1080p"},
		{"720p", "720p"},
		{"unknown", ""},
		{"UNKNOWN", ""},
		{"", ""},
		{"  ", ""},
		{"hd", "hd"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, manifest.NormalizeLabel(tt.in))
		})
	}
}

func TestHeightFromPath(t *testing.T) {
	assert.Equal(t, "720p", manifest.HeightFromPath(mustParseURL(t, "https://cdn.example/hls/720p/video.m3u8")))
	assert.Equal(t, "1080p", manifest.HeightFromPath(mustParseURL(t, "https://cdn.example/1080P/index.m3u8")))
	assert.Equal(t, "", manifest.HeightFromPath(mustParseURL(t, "https://cdn.example/hls/video-720p.m3u8")))
}
