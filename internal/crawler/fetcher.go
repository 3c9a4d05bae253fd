package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FetchResult is the outcome of fetching one page.
type FetchResult struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status, or 0 if no response was received.
	StatusCode int

	// Text is the response body. It is empty unless the status was 2xx.
	Text string

	// Err is the reason Text is empty, if the fetch failed.
	Err error
}

// Fetcher downloads single pages.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	timeout     time.Duration
	maxBodySize int64
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithFetcherUserAgent sets the User-Agent header.
func WithFetcherUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithFetcherTimeout sets the per-request timeout. Zero disables it.
func WithFetcherTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithFetcherMaxBodySize caps how many bytes of a page are read.
// Longer bodies are truncated.
func WithFetcherMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// NewFetcher creates a Fetcher using the given HTTP client.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      client,
		userAgent:   DefaultUserAgent,
		timeout:     DefaultRequestTimeout,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs a single GET and returns the body as text.
// It never retries and never returns an error directly; failures leave
// Text empty and are recorded in Err.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) FetchResult {
	result := FetchResult{URL: pageURL}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		result.Err = fmt.Errorf("failed to create request: %w", err)
		return result
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		result.Err = fmt.Errorf("fetch failed: %w", err)
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result.Err = fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		return result
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		result.Err = fmt.Errorf("failed to read body: %w", err)
		return result
	}
	result.Text = string(body)
	return result
}
