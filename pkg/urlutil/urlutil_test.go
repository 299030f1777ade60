package urlutil

import (
	"net/url"
	"testing"
)

func mustParse(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return *u
}

func TestResolve(t *testing.T) {
	base := mustParse(t, "https://cdn.example.com/hls/720p/index.m3u8?token=abc")

	tests := []struct {
		name     string
		ref      string
		expected string
		wantErr  bool
	}{
		{name: "relative file", ref: "seg-000.ts", expected: "https://cdn.example.com/hls/720p/seg-000.ts"},
		{name: "parent relative", ref: "../360p/index.m3u8", expected: "https://cdn.example.com/hls/360p/index.m3u8"},
		{name: "root relative", ref: "/other/seg.ts", expected: "https://cdn.example.com/other/seg.ts"},
		{name: "absolute", ref: "http://other.example.com/a.ts", expected: "http://other.example.com/a.ts"},
		{name: "surrounding whitespace", ref: "  seg-001.ts \r", expected: "https://cdn.example.com/hls/720p/seg-001.ts"},
		{name: "empty", ref: "   ", wantErr: true},
		{name: "malformed escape", ref: "seg%zz.ts", wantErr: true},
		{name: "malformed host", ref: "http://[::1/seg.ts", wantErr: true},
		{name: "unsupported scheme", ref: "ftp://example.com/seg.ts", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(base, tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Resolve(%q) expected error, got %s", tt.ref, got.String())
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) unexpected error: %v", tt.ref, err)
			}
			if got.String() != tt.expected {
				t.Errorf("Resolve(%q) = %q, want %q", tt.ref, got.String(), tt.expected)
			}
		})
	}
}

func TestBasename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://cdn.example.com/hls/seg-001.ts?x=1", "seg-001.ts"},
		{"https://cdn.example.com/", ""},
		{"https://cdn.example.com", ""},
	}
	for _, tt := range tests {
		if got := Basename(mustParse(t, tt.input)); got != tt.expected {
			t.Errorf("Basename(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
