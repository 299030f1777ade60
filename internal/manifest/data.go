package manifest

import (
	"net/url"

	"github.com/rohmanhakim/stream-harvester/internal/playlist"
)

// Locator is where a page's top-level manifest lives and how to ask for it.
type Locator struct {
	ManifestURL    url.URL
	ResolutionHint string
	Referer        string
}

// Resolution is the outcome of walking the manifest chain for one page.
// Segments are in playback order. ResolutionLabel is normalized ("720p") or
// empty when unknown.
type Resolution struct {
	PageURL         url.URL
	ManifestURL     url.URL
	VariantURL      *url.URL
	Referer         string
	Segments        []playlist.SegmentRef
	ResolutionLabel string
}
