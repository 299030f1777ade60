package manifest_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/rohmanhakim/stream-harvester/internal/fetcher"
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
		Return(fetcher.FetchResult{}, &fetcher.FetchError{
			Message: "exhausted",
			Cause:   fetcher.ErrCauseRequest4xx,
		})
}

func mustParseURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}
