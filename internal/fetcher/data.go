package fetcher

import (
	"net/http"
	"net/url"
	"time"

	"github.com/rohmanhakim/stream-harvester/pkg/limiter"
)

// Credentials is the explicitly scoped header material injected into a
// fetcher at construction. It replaces any process-wide header table.
type Credentials struct {
	UserAgent string
	Cookie    string
	Headers   map[string]string
}

// HTTP boundary

// FetchRequest is immutable once constructed.
type FetchRequest struct {
	fetchUrl    url.URL
	headers     map[string]string
	referer     string
	discardBody bool
}

type RequestOption func(*FetchRequest)

// WithReferer sets the Referer header for this request.
func WithReferer(referer string) RequestOption {
	return func(r *FetchRequest) {
		r.referer = referer
	}
}

// WithHeader adds a request-scoped header; it overrides credentials and defaults.
func WithHeader(name, value string) RequestOption {
	return func(r *FetchRequest) {
		r.headers[name] = value
	}
}

// WithoutBody skips reading the response body. Used when only the final
// URL after redirects matters.
func WithoutBody() RequestOption {
	return func(r *FetchRequest) {
		r.discardBody = true
	}
}

func NewFetchRequest(fetchUrl url.URL, opts ...RequestOption) FetchRequest {
	req := FetchRequest{
		fetchUrl: fetchUrl,
		headers:  map[string]string{},
	}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

func (r FetchRequest) URL() url.URL {
	return r.fetchUrl
}

func (r FetchRequest) Referer() string {
	return r.referer
}

// Headers returns a copy of the request-scoped headers.
func (r FetchRequest) Headers() map[string]string {
	headers := make(map[string]string, len(r.headers))
	for k, v := range r.headers {
		headers[k] = v
	}
	return headers
}

func (r FetchRequest) DiscardBody() bool {
	return r.discardBody
}

type FetchResult struct {
	url      url.URL
	finalURL url.URL
	body     []byte
	meta     ResponseMeta
}

func (f *FetchResult) URL() url.URL {
	return f.url
}

// FinalURL is the URL of the last request in the redirect chain.
func (f *FetchResult) FinalURL() url.URL {
	return f.finalURL
}

func (f *FetchResult) Body() []byte {
	return f.body
}

func (f *FetchResult) Code() int {
	return f.meta.statusCode
}

// Attempts is the 1-based attempt number that produced this result.
func (f *FetchResult) Attempts() int {
	return f.meta.attempts
}

func (f *FetchResult) Headers() map[string]string {
	return f.meta.responseHeaders
}

type ResponseMeta struct {
	statusCode      int
	attempts        int
	responseHeaders map[string]string
}

// NewFetchResultForTest creates a FetchResult for testing purposes.
// This allows test packages to construct FetchResult values without
// accessing unexported fields directly.
func NewFetchResultForTest(
	fetchUrl url.URL,
	finalURL url.URL,
	body []byte,
	statusCode int,
	attempts int,
) FetchResult {
	return FetchResult{
		url:      fetchUrl,
		finalURL: finalURL,
		body:     body,
		meta: ResponseMeta{
			statusCode:      statusCode,
			attempts:        attempts,
			responseHeaders: map[string]string{},
		},
	}
}

type Option func(*RetryingFetcher)

// WithHTTPClient replaces the default client. Tests use it to plug in
// httptest transports.
func WithHTTPClient(client *http.Client) Option {
	return func(f *RetryingFetcher) {
		f.httpClient = client
	}
}

// WithTimeout bounds a single attempt. Zero means no timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(f *RetryingFetcher) {
		f.httpClient.Timeout = timeout
	}
}

// WithRateLimiter spaces out requests to the same host.
func WithRateLimiter(rateLimiter limiter.RateLimiter) Option {
	return func(f *RetryingFetcher) {
		f.rateLimiter = rateLimiter
	}
}
