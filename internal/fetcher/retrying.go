package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rohmanhakim/stream-harvester/internal/metadata"
	"github.com/rohmanhakim/stream-harvester/pkg/failure"
	"github.com/rohmanhakim/stream-harvester/pkg/limiter"
	"github.com/rohmanhakim/stream-harvester/pkg/retry"
)

/*
Responsibilities

- Perform HTTP GET requests with injected credentials and a referer
- Retry every transport failure and non-2xx response with a fixed delay
- Classify failures
- Report one warning per failed attempt and one error on final failure

Fetch Semantics

- A result is returned only for a 2xx response or once the retry budget is spent
- A 2xx response with an empty body is a success
- Redirect chains are followed by the client and bounded
- The fetcher never parses content; it only returns bytes and metadata
*/

const maxRedirects = 10

type RetryingFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	credentials  Credentials
	rateLimiter  limiter.RateLimiter
}

func NewRetryingFetcher(
	metadataSink metadata.MetadataSink,
	credentials Credentials,
	opts ...Option,
) *RetryingFetcher {
	f := &RetryingFetcher{
		metadataSink: metadataSink,
		httpClient: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		credentials: credentials,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *RetryingFetcher) Fetch(
	ctx context.Context,
	fetchRequest FetchRequest,
	retryParam retry.RetryParam,
) (FetchResult, failure.ClassifiedError) {
	callerMethod := "RetryingFetcher.Fetch"
	fetchUrl := fetchRequest.URL()
	startTime := time.Now()

	result := retry.Retry(
		ctx,
		retryParam,
		func(attempt int) (FetchResult, failure.ClassifiedError) {
			return f.performFetch(ctx, fetchRequest, attempt)
		},
		func(attempt int, err failure.ClassifiedError, willRetry bool) {
			f.metadataSink.RecordRetry(fetchUrl.String(), attempt, retryParam.MaxAttempts, err.Error())
		},
	)

	if result.IsFailure() {
		err := result.Err()
		cause := metadata.CauseNetworkFailure
		var fetchErr *FetchError
		if !retry.IsExhausted(err) && errors.As(err, &fetchErr) {
			cause = mapFetchErrorToMetadataCause(fetchErr)
		}
		f.metadataSink.RecordError(
			time.Now(),
			"fetcher",
			callerMethod,
			cause,
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, fetchUrl.String()),
			},
		)
		return FetchResult{}, err
	}

	value := result.Value()
	f.metadataSink.RecordFetch(fetchUrl.String(), value.Code(), time.Since(startTime), result.Attempts())
	return value, nil
}

func (f *RetryingFetcher) performFetch(ctx context.Context, fetchRequest FetchRequest, attempt int) (FetchResult, failure.ClassifiedError) {
	fetchUrl := fetchRequest.URL()

	if f.rateLimiter != nil {
		if err := f.rateLimiter.Wait(ctx, fetchUrl.Host); err != nil {
			return FetchResult{}, &FetchError{
				Message:   err.Error(),
				Retryable: false,
				Cause:     ErrCauseCancelled,
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchUrl.String(), nil)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseInvalidRequest,
		}
	}

	for key, value := range f.requestHeaders(fetchRequest) {
		req.Header.Set(key, value)
	}

	resp, err := f.httpClient.Do(req)
	if f.rateLimiter != nil {
		f.rateLimiter.MarkLastFetchAsNow(fetchUrl.Host)
	}
	if err != nil {
		return FetchResult{}, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if statusErr := classifyStatus(resp.StatusCode); statusErr != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return FetchResult{}, statusErr
	}

	var body []byte
	if !fetchRequest.DiscardBody() {
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return FetchResult{}, &FetchError{
				Message:   fmt.Sprintf("failed to read response body: %v", err),
				Retryable: true,
				Cause:     ErrCauseReadResponseBodyError,
			}
		}
	}

	responseHeaders := make(map[string]string)
	for key, values := range resp.Header {
		if len(values) > 0 {
			responseHeaders[key] = values[0]
		}
	}

	finalURL := fetchUrl
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = *resp.Request.URL
	}

	return FetchResult{
		url:      fetchUrl,
		finalURL: finalURL,
		body:     body,
		meta: ResponseMeta{
			statusCode:      resp.StatusCode,
			attempts:        attempt,
			responseHeaders: responseHeaders,
		},
	}, nil
}

// requestHeaders layers defaults, credentials, request headers and referer,
// later layers winning.
func (f *RetryingFetcher) requestHeaders(fetchRequest FetchRequest) map[string]string {
	headers := map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
		"DNT":             "1",
		"Connection":      "keep-alive",
	}
	if f.credentials.UserAgent != "" {
		headers["User-Agent"] = f.credentials.UserAgent
	}
	if f.credentials.Cookie != "" {
		headers["Cookie"] = f.credentials.Cookie
	}
	for k, v := range f.credentials.Headers {
		headers[k] = v
	}
	for k, v := range fetchRequest.Headers() {
		headers[k] = v
	}
	if fetchRequest.Referer() != "" {
		headers["Referer"] = fetchRequest.Referer()
	}
	return headers
}

func classifyTransportError(ctx context.Context, err error) *FetchError {
	// the caller gave up; another attempt cannot succeed
	if ctx.Err() != nil {
		return &FetchError{
			Message:   fmt.Sprintf("request cancelled: %v", err),
			Retryable: false,
			Cause:     ErrCauseCancelled,
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &FetchError{
			Message:   fmt.Sprintf("request timed out: %v", err),
			Retryable: true,
			Cause:     ErrCauseTimeout,
		}
	}

	return &FetchError{
		Message:   fmt.Sprintf("request failed: %v", err),
		Retryable: true,
		Cause:     ErrCauseNetworkFailure,
	}
}

// classifyStatus returns nil for 2xx. Every other status is retryable.
func classifyStatus(statusCode int) *FetchError {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode >= 500:
		return &FetchError{
			Message:    fmt.Sprintf("server error: %d", statusCode),
			Retryable:  true,
			Cause:      ErrCauseRequest5xx,
			StatusCode: statusCode,
		}
	case statusCode == http.StatusTooManyRequests:
		return &FetchError{
			Message:    "rate limited (429)",
			Retryable:  true,
			Cause:      ErrCauseRequestTooMany,
			StatusCode: statusCode,
		}
	case statusCode == http.StatusForbidden:
		return &FetchError{
			Message:    "access forbidden (403)",
			Retryable:  true,
			Cause:      ErrCauseRequestPageForbidden,
			StatusCode: statusCode,
		}
	case statusCode >= 400:
		return &FetchError{
			Message:    fmt.Sprintf("client error: %d", statusCode),
			Retryable:  true,
			Cause:      ErrCauseRequest4xx,
			StatusCode: statusCode,
		}
	case statusCode >= 300:
		return &FetchError{
			Message:    fmt.Sprintf("redirect error: %d", statusCode),
			Retryable:  true,
			Cause:      ErrCauseRedirectLimitExceeded,
			StatusCode: statusCode,
		}
	default:
		return &FetchError{
			Message:    fmt.Sprintf("unexpected status: %d", statusCode),
			Retryable:  true,
			Cause:      ErrCauseNetworkFailure,
			StatusCode: statusCode,
		}
	}
}
