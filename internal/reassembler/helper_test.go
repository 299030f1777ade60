package reassembler_test

import (
	"context"
	"net/url"
	"os"
	"testing"

	"github.com/rohmanhakim/stream-harvester/internal/fetcher"
	"github.com/rohmanhakim/stream-harvester/internal/playlist"
	"github.com/rohmanhakim/stream-harvester/internal/reassembler"
	"github.com/rohmanhakim/stream-harvester/pkg/failure"
	"github.com/rohmanhakim/stream-harvester/pkg/retry"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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

func (f *fetcherMock) serve(t *testing.T, raw string, body string) {
	t.Helper()
	u := mustParseURL(t, raw)
	f.On("Fetch", mock.Anything, requestFor(raw), mock.Anything).
		Return(fetcher.NewFetchResultForTest(u, u, []byte(body), 200, 1), nil)
}

func (f *fetcherMock) fail(raw string) {
	f.On("Fetch", mock.Anything, requestFor(raw), mock.Anything).
		Return(fetcher.FetchResult{}, &retry.RetryError{
			Message: "exhausted 3 attempts",
			Cause:   retry.ErrExhaustedAttempts,
		})
}

func (f *fetcherMock) requestedURLs() []string {
	var urls []string
	for _, call := range f.Calls {
		req := call.Arguments.Get(1).(fetcher.FetchRequest)
		u := req.URL()
		urls = append(urls, u.String())
	}
	return urls
}

// concatMuxer writes the listed files back to back, the way a stream copy would.
type concatMuxer struct {
	calls    int
	lastSpec reassembler.ConcatSpec
	list     string
	err      error
}

func (m *concatMuxer) Mux(ctx context.Context, spec reassembler.ConcatSpec, outputPath string) error {
	m.calls++
	m.lastSpec = spec
	list, err := os.ReadFile(spec.ListPath)
	if err != nil {
		return err
	}
	m.list = string(list)

	var out []byte
	for _, f := range spec.Files {
		data, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		out = append(out, data...)
	}
	if writeErr := os.WriteFile(outputPath, out, 0644); writeErr != nil {
		return writeErr
	}
	return m.err
}

func mustParseURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}

func segmentsOf(t *testing.T, raws ...string) []playlist.SegmentRef {
	segments := make([]playlist.SegmentRef, len(raws))
	for i, raw := range raws {
		segments[i] = playlist.SegmentRef{URL: mustParseURL(t, raw), Ordinal: i}
	}
	return segments
}
