package harvester_test

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/rohmanhakim/stream-harvester/internal/extractor"
	"github.com/rohmanhakim/stream-harvester/internal/fetcher"
	"github.com/rohmanhakim/stream-harvester/internal/harvester"
	"github.com/rohmanhakim/stream-harvester/internal/metadata"
	"github.com/rohmanhakim/stream-harvester/internal/storage"
	"github.com/rohmanhakim/stream-harvester/pkg/failure"
	"github.com/rohmanhakim/stream-harvester/pkg/hashutil"
	"github.com/rohmanhakim/stream-harvester/pkg/retry"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fetcherMock is a testify mock for the Fetcher
type fetcherMock struct {
	mock.Mock
}

func (f *fetcherMock) Fetch(
	ctx context.Context,
	fetchRequest fetcher.FetchRequest,
	retryParam retry.RetryParam,
) (fetcher.FetchResult, failure.ClassifiedError) {
	args := f.Called(ctx, fetchRequest, retryParam)
	result := args.Get(0).(fetcher.FetchResult)
	var err failure.ClassifiedError
	if args.Get(1) != nil {
		err = args.Get(1).(failure.ClassifiedError)
	}
	return result, err
}

func requestFor(raw string) any {
	return mock.MatchedBy(func(r fetcher.FetchRequest) bool {
		u := r.URL()
		return u.String() == raw
	})
}

func (f *fetcherMock) page(t *testing.T, raw string, body string) {
	t.Helper()
	u := mustParseURL(t, raw)
	f.On("Fetch", mock.Anything, requestFor(raw), mock.Anything).
		Return(fetcher.NewFetchResultForTest(u, u, []byte(body), 200, 1), nil)
}

func (f *fetcherMock) redirect(t *testing.T, raw string, final string) {
	t.Helper()
	f.On("Fetch", mock.Anything, requestFor(raw), mock.Anything).
		Return(fetcher.NewFetchResultForTest(mustParseURL(t, raw), mustParseURL(t, final), nil, 200, 1), nil)
}

func (f *fetcherMock) fail(raw string) {
	f.On("Fetch", mock.Anything, requestFor(raw), mock.Anything).
		Return(fetcher.FetchResult{}, &fetcher.FetchError{
			Message:   "exhausted",
			Retryable: false,
			Cause:     fetcher.ErrCauseRequest5xx,
		})
}

type finalizerSpy struct {
	calls    int
	pages    int
	entities int
	resolved int
	failures int
}

func (f *finalizerSpy) RecordFinalHarvestStats(pages int, entities int, resolved int, failures int, duration time.Duration) {
	f.calls++
	f.pages = pages
	f.entities = entities
	f.resolved = resolved
	f.failures = failures
}

type sinkSpy struct {
	metadata.NoopSink
	mu       sync.Mutex
	warnings []string
}

func (s *sinkSpy) RecordWarning(packageName string, action string, details string, attrs []metadata.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, details)
}

func mustParseURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}

func newHarvester(f *fetcherMock, sink *sinkSpy, finalizer *finalizerSpy) harvester.Harvester {
	domExtractor := extractor.NewDomExtractor(sink)
	localSink := storage.NewLocalSink(sink)
	return harvester.NewHarvester(sink, finalizer, f, &domExtractor, &localSink)
}

func defaultParams(t *testing.T, outputDir string, maxPages int) harvester.Params {
	return harvester.Params{
		ListingURLTemplate: "https://site.example/series/page/%d",
		BaseURL:            mustParseURL(t, "https://site.example"),
		MaxPages:           maxPages,
		EntityConcurrency:  3,
		TargetConcurrency:  4,
		EntitySelector:     extractor.DefaultEntitySelector,
		TargetSelector:     extractor.DefaultTargetSelector,
		OutputDir:          outputDir,
		HashAlgo:           hashutil.HashAlgoBLAKE3,
		RetryParam:         retry.NewRetryParam(time.Millisecond, 1),
	}
}

func listingHTML(entries ...[2]string) string {
	body := `<html><body><div class="content-section">`
	for _, e := range entries {
		body += `<a class="poster" href="` + e[0] + `" title="` + e[1] + `">x</a>`
	}
	return body + `</div></body></html>`
}

func entityHTML(hrefs ...string) string {
	body := `<html><body><div class="serie-episodes">`
	for _, h := range hrefs {
		body += `<a class="episode" href="` + h + `">ep</a>`
	}
	return body + `</div></body></html>`
}
