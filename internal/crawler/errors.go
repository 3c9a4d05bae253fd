package crawler

import "errors"

// Sentinel errors recorded in SearchResult.Err and FetchResult.Err.
var (
	// ErrUnexpectedStatus indicates a response outside the 2xx range.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrEmptyQuery indicates a search was requested with a blank query.
	ErrEmptyQuery = errors.New("empty search query")
)
