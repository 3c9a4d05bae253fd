package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrInvalidInterval is returned when no cron schedule is set and the
	// interval is not positive.
	ErrInvalidInterval = errors.New("invalid interval: must be positive")

	// ErrNoTopics is returned when no base query is configured.
	ErrNoTopics = errors.New("no topics configured")

	// ErrBlankTopic is returned when a topics entry is empty or whitespace.
	ErrBlankTopic = errors.New("blank topic")

	// ErrNoPlatforms is returned when the platform allow-list is empty.
	ErrNoPlatforms = errors.New("no platforms configured")

	// ErrInvalidPlatform is returned for an allow-list entry that is not a bare host.
	ErrInvalidPlatform = errors.New("invalid platform: must be a bare host name")

	// ErrInvalidMaxResults is returned when max_results is not positive.
	ErrInvalidMaxResults = errors.New("invalid max results: must be positive")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDelay is returned when the per-URL delay is negative.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidSearchInterval is returned when the search interval is negative.
	ErrInvalidSearchInterval = errors.New("invalid search interval: must be non-negative")

	// ErrInvalidMaxBodySize is returned when max_body_size is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidSearchEndpoint is returned when the search endpoint is not an absolute http(s) URL.
	ErrInvalidSearchEndpoint = errors.New("invalid search endpoint")

	// ErrMissingAddr is returned when the API listen address is empty.
	ErrMissingAddr = errors.New("listen address is empty")

	// ErrMissingDBDir is returned when the database directory is empty.
	ErrMissingDBDir = errors.New("database directory is empty")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
