package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const (
	// DefaultSearchEndpoint is the HTML-only DuckDuckGo endpoint.
	DefaultSearchEndpoint = "https://html.duckduckgo.com/html/"

	// DefaultUserAgent is sent with every outbound request.
	DefaultUserAgent = "Mozilla/5.0"

	// DefaultRequestTimeout bounds a single search or fetch.
	DefaultRequestTimeout = 10 * time.Second

	// DefaultMaxBodySize caps how many bytes of a response body are read.
	DefaultMaxBodySize int64 = 5 * 1024 * 1024

	// redirectParam is the query parameter carrying the destination URL
	// in DuckDuckGo result links.
	redirectParam = "uddg"
)

// SearchResult is the outcome of one search.
type SearchResult struct {
	// Query is the query string that was sent.
	Query string

	// Links are the destination URLs in page order. Never nil.
	Links []string

	// Err is the reason Links is empty, if the search failed.
	// It is informational; a failed search is not a run failure.
	Err error
}

// SearchClient submits queries to a web search engine and returns the
// destination URLs of the results.
type SearchClient struct {
	client      *http.Client
	endpoint    string
	userAgent   string
	timeout     time.Duration
	maxBodySize int64
	limiter     *rate.Limiter
}

// SearchOption configures a SearchClient.
type SearchOption func(*SearchClient)

// WithSearchEndpoint overrides the search endpoint URL.
func WithSearchEndpoint(endpoint string) SearchOption {
	return func(c *SearchClient) {
		c.endpoint = endpoint
	}
}

// WithSearchUserAgent sets the User-Agent header.
func WithSearchUserAgent(ua string) SearchOption {
	return func(c *SearchClient) {
		c.userAgent = ua
	}
}

// WithSearchTimeout sets the per-request timeout. Zero disables it.
func WithSearchTimeout(d time.Duration) SearchOption {
	return func(c *SearchClient) {
		c.timeout = d
	}
}

// WithSearchMaxBodySize caps the size of the result page that is parsed.
func WithSearchMaxBodySize(size int64) SearchOption {
	return func(c *SearchClient) {
		c.maxBodySize = size
	}
}

// WithSearchInterval enforces a minimum spacing between consecutive
// searches. Zero or negative means no pacing.
func WithSearchInterval(interval time.Duration) SearchOption {
	return func(c *SearchClient) {
		if interval <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// NewSearchClient creates a SearchClient using the given HTTP client.
// The HTTP client decides the egress path (direct or proxied).
func NewSearchClient(client *http.Client, opts ...SearchOption) *SearchClient {
	c := &SearchClient{
		client:      client,
		endpoint:    DefaultSearchEndpoint,
		userAgent:   DefaultUserAgent,
		timeout:     DefaultRequestTimeout,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search sends query to the search engine and returns up to maxResults
// destination URLs. A maxResults of zero or less means no cap.
//
// Search never fails outright: any error leaves Links empty and is
// recorded in the result's Err field.
func (c *SearchClient) Search(ctx context.Context, query string, maxResults int) SearchResult {
	result := SearchResult{Query: query, Links: []string{}}

	if strings.TrimSpace(query) == "" {
		result.Err = ErrEmptyQuery
		return result
	}

	links, err := c.search(ctx, query, maxResults)
	if err != nil {
		result.Err = err
		return result
	}
	result.Links = links
	return result
}

func (c *SearchClient) search(ctx context.Context, query string, maxResults int) ([]string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for search slot: %w", err)
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	return parseResultLinks(io.LimitReader(resp.Body, c.maxBodySize), maxResults)
}

// parseResultLinks collects redirect destinations from a result page, in
// document order, until maxResults links are found.
func parseResultLinks(r io.Reader, maxResults int) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	links := make([]string, 0)
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if maxResults > 0 && len(links) >= maxResults {
			return false
		}
		href, _ := s.Attr("href")
		if dest := redirectTarget(href); dest != "" {
			links = append(links, dest)
		}
		return maxResults <= 0 || len(links) < maxResults
	})
	return links, nil
}

// redirectTarget returns the decoded uddg destination of href, or "" if
// href is not a result redirect.
func redirectTarget(href string) string {
	if !strings.Contains(href, redirectParam+"=") {
		return ""
	}
	if u, err := url.Parse(href); err == nil {
		if dest := u.Query().Get(redirectParam); dest != "" {
			return dest
		}
	}

	// Not a well-formed URL: take everything after the parameter name.
	_, raw, _ := strings.Cut(href, redirectParam+"=")
	raw, _, _ = strings.Cut(raw, "&")
	dest, err := url.QueryUnescape(raw)
	if err != nil {
		return ""
	}
	return dest
}
