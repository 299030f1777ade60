package manifest

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/rohmanhakim/stream-harvester/internal/extractor"
	"github.com/rohmanhakim/stream-harvester/internal/fetcher"
	"github.com/rohmanhakim/stream-harvester/internal/metadata"
	"github.com/rohmanhakim/stream-harvester/pkg/failure"
	"github.com/rohmanhakim/stream-harvester/pkg/retry"
	"github.com/rohmanhakim/stream-harvester/pkg/urlutil"
)

// Resolver finds the top-level manifest of a page.
type Resolver interface {
	Locate(ctx context.Context, pageURL url.URL) (Locator, failure.ClassifiedError)
}

// StaticResolver returns a manifest URL supplied up front. The page URL
// becomes the referer.
type StaticResolver struct {
	manifestURL url.URL
}

func NewStaticResolver(manifestURL url.URL) StaticResolver {
	return StaticResolver{manifestURL: manifestURL}
}

func (s StaticResolver) Locate(ctx context.Context, pageURL url.URL) (Locator, failure.ClassifiedError) {
	return Locator{
		ManifestURL:    s.manifestURL,
		ResolutionHint: HeightFromPath(s.manifestURL),
		Referer:        pageURL.String(),
	}, nil
}

// AttrExtractor pulls URL-valued attributes out of HTML.
type AttrExtractor interface {
	ExtractAttr(
		sourceUrl url.URL,
		htmlByte []byte,
		selector string,
		attr string,
	) ([]extractor.Link, failure.ClassifiedError)
}

var rawManifestPattern = regexp.MustCompile(`https?://[^\s"'<>\\]+?\.m3u8[^\s"'<>\\]*`)

/*
PageScanResolver discovers a manifest from static HTML.

Lookup order:
  - <source src*=".m3u8"> under the video selector, inside the player iframe
  - the same on the page itself
  - absolute .m3u8 URLs anywhere in the iframe body, then the page body

Inline sources win. Among scanned URLs a specific manifest (video.m3u8,
chunklist, anything that is not playlist.m3u8) wins over a generic one;
first seen breaks ties.
*/
type PageScanResolver struct {
	metadataSink   metadata.MetadataSink
	fetcher        fetcher.Fetcher
	attrExtractor  AttrExtractor
	iframeSelector string
	videoSelector  string
	retryParam     retry.RetryParam
}

func NewPageScanResolver(
	metadataSink metadata.MetadataSink,
	htmlFetcher fetcher.Fetcher,
	attrExtractor AttrExtractor,
	iframeSelector string,
	videoSelector string,
	retryParam retry.RetryParam,
) PageScanResolver {
	return PageScanResolver{
		metadataSink:   metadataSink,
		fetcher:        htmlFetcher,
		attrExtractor:  attrExtractor,
		iframeSelector: iframeSelector,
		videoSelector:  videoSelector,
		retryParam:     retryParam,
	}
}

type scannedDocument struct {
	url  url.URL
	body []byte
}

func (r PageScanResolver) Locate(ctx context.Context, pageURL url.URL) (Locator, failure.ClassifiedError) {
	pageResult, err := r.fetcher.Fetch(ctx, fetcher.NewFetchRequest(pageURL), r.retryParam)
	if err != nil {
		return Locator{}, err
	}
	page := scannedDocument{url: pageResult.FinalURL(), body: pageResult.Body()}

	// iframe first, page second
	documents := []scannedDocument{}
	if frame, ok := r.fetchFrame(ctx, page); ok {
		documents = append(documents, frame)
	}
	documents = append(documents, page)

	for _, doc := range documents {
		if manifestURL, ok := r.inlineSource(doc); ok {
			return r.locator(manifestURL, pageURL), nil
		}
	}

	var candidates []url.URL
	for _, doc := range documents {
		candidates = append(candidates, scanManifestURLs(doc.body)...)
	}
	if manifestURL, ok := PickManifestCandidate(candidates); ok {
		return r.locator(manifestURL, pageURL), nil
	}

	return Locator{}, &ManifestError{
		Message:   fmt.Sprintf("no manifest reference found on %s", pageURL.String()),
		Retryable: false,
		Cause:     ErrCauseManifestNotFound,
	}
}

func (r PageScanResolver) locator(manifestURL url.URL, pageURL url.URL) Locator {
	return Locator{
		ManifestURL:    manifestURL,
		ResolutionHint: HeightFromPath(manifestURL),
		Referer:        pageURL.String(),
	}
}

// fetchFrame loads one level of player iframe. Failures only cost the
// iframe; the page body is still scanned.
func (r PageScanResolver) fetchFrame(ctx context.Context, page scannedDocument) (scannedDocument, bool) {
	if strings.TrimSpace(r.iframeSelector) == "" {
		return scannedDocument{}, false
	}
	frames, err := r.attrExtractor.ExtractAttr(page.url, page.body, r.iframeSelector, "src")
	if err != nil || len(frames) == 0 {
		return scannedDocument{}, false
	}

	request := fetcher.NewFetchRequest(frames[0].Href, fetcher.WithReferer(page.url.String()))
	frameResult, fetchErr := r.fetcher.Fetch(ctx, request, r.retryParam)
	if fetchErr != nil {
		r.metadataSink.RecordWarning(
			"manifest",
			"PageScanResolver.fetchFrame",
			"player iframe could not be fetched: "+fetchErr.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, frames[0].Href.String()),
			},
		)
		return scannedDocument{}, false
	}
	return scannedDocument{url: frameResult.FinalURL(), body: frameResult.Body()}, true
}

func (r PageScanResolver) inlineSource(doc scannedDocument) (url.URL, bool) {
	selector := `source[src*=".m3u8"]`
	if strings.TrimSpace(r.videoSelector) != "" {
		selector = r.videoSelector + " " + selector
	}
	sources, err := r.attrExtractor.ExtractAttr(doc.url, doc.body, selector, "src")
	if err != nil || len(sources) == 0 {
		return url.URL{}, false
	}
	return sources[0].Href, true
}

// scanManifestURLs finds absolute .m3u8 URLs in raw text, including
// JSON-escaped ones.
func scanManifestURLs(body []byte) []url.URL {
	text := strings.ReplaceAll(string(body), `\/`, "/")
	var found []url.URL
	for _, raw := range rawManifestPattern.FindAllString(text, -1) {
		parsed, err := urlutil.Resolve(url.URL{}, raw)
		if err != nil {
			continue
		}
		found = append(found, parsed)
	}
	return found
}

// manifestSpecificity ranks candidates; lower is more specific.
func manifestSpecificity(u url.URL) int {
	s := u.String()
	switch {
	case strings.Contains(s, "video.m3u8") || strings.Contains(s, "chunklist"):
		return 0
	case !strings.Contains(s, "playlist.m3u8"):
		return 1
	default:
		return 2
	}
}

// PickManifestCandidate returns the most specific candidate, first seen on ties.
func PickManifestCandidate(candidates []url.URL) (url.URL, bool) {
	if len(candidates) == 0 {
		return url.URL{}, false
	}
	ranked := make([]url.URL, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return manifestSpecificity(ranked[i]) < manifestSpecificity(ranked[j])
	})
	return ranked[0], true
}
