package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/leakwatch/internal/crawler"
	"github.com/nao1215/leakwatch/internal/pipeline"
	"github.com/nao1215/leakwatch/internal/scheduler"
)

const (
	// AppName is the application name used for XDG directory paths.
	AppName = "leakwatch"

	// DefaultAddr is the listen address of the read API.
	DefaultAddr = ":5000"

	// DefaultSearchInterval spaces consecutive search requests. Zero means
	// the per-URL delay is the only pacing.
	DefaultSearchInterval = time.Duration(0)
)

// Config holds every leakwatch setting.
// Durations are written as Go duration strings ("168h", "2s") in YAML.
type Config struct {
	// Interval is the spacing between scheduled crawl runs.
	Interval time.Duration `yaml:"interval"`

	// Schedule is an optional five-field cron expression. When set it
	// replaces Interval.
	Schedule string `yaml:"schedule,omitempty"`

	// RunOnStart starts one crawl as soon as the server is up.
	RunOnStart bool `yaml:"run_on_start"`

	// Topics are the base search phrases.
	Topics []string `yaml:"topics"`

	// Platforms is the host allow-list. Each topic is searched once per platform.
	Platforms []string `yaml:"platforms"`

	// MaxResults caps the links collected per search query.
	MaxResults int `yaml:"max_results"`

	// Timeout bounds each outbound HTTP request.
	Timeout time.Duration `yaml:"timeout"`

	// Delay is the pause after each processed URL.
	Delay time.Duration `yaml:"delay"`

	// SearchInterval is the minimum spacing between search requests.
	SearchInterval time.Duration `yaml:"search_interval"`

	// SearchEndpoint is the HTML search endpoint queried with POST.
	SearchEndpoint string `yaml:"search_endpoint"`

	// UserAgent is sent with every outbound request.
	UserAgent string `yaml:"user_agent"`

	// MaxBodySize caps how many bytes of a response body are read.
	MaxBodySize int64 `yaml:"max_body_size"`

	// ProxyAddress routes outbound traffic through a SOCKS5 proxy ("host:port").
	ProxyAddress string `yaml:"proxy,omitempty"`

	// Addr is the read API listen address.
	Addr string `yaml:"addr"`

	// DBDir is the directory holding the SQLite database.
	DBDir string `yaml:"db_dir"`

	// ConfigFilePath is the file the settings were loaded from, if any.
	ConfigFilePath string `yaml:"-"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Interval:       scheduler.DefaultInterval,
		Topics:         pipeline.DefaultTopics(),
		Platforms:      crawler.DefaultPlatforms(),
		MaxResults:     pipeline.DefaultMaxResults,
		Timeout:        crawler.DefaultRequestTimeout,
		Delay:          pipeline.DefaultDelay,
		SearchInterval: DefaultSearchInterval,
		SearchEndpoint: crawler.DefaultSearchEndpoint,
		UserAgent:      crawler.DefaultUserAgent,
		MaxBodySize:    crawler.DefaultMaxBodySize,
		Addr:           DefaultAddr,
		DBDir:          XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for leakwatch.
// On Linux: ~/.local/share/leakwatch
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for leakwatch.
// On Linux: ~/.config/leakwatch
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate returns the first problem found, wrapped around one of the
// package's sentinel errors.
func (c *Config) Validate() error {
	if c.Schedule == "" && c.Interval <= 0 {
		return ErrInvalidInterval
	}
	if len(nonBlank(c.Topics)) == 0 {
		return ErrNoTopics
	}
	if len(nonBlank(c.Platforms)) == 0 {
		return ErrNoPlatforms
	}
	for i, t := range c.Topics {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("%w at index %d", ErrBlankTopic, i)
		}
	}
	for _, p := range c.Platforms {
		if strings.TrimSpace(p) == "" || strings.ContainsAny(p, "/: ") {
			return fmt.Errorf("%w: %q", ErrInvalidPlatform, p)
		}
	}
	if c.MaxResults <= 0 {
		return ErrInvalidMaxResults
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.SearchInterval < 0 {
		return ErrInvalidSearchInterval
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if u, err := url.Parse(c.SearchEndpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidSearchEndpoint, c.SearchEndpoint)
	}
	if strings.TrimSpace(c.Addr) == "" {
		return ErrMissingAddr
	}
	if strings.TrimSpace(c.DBDir) == "" {
		return ErrMissingDBDir
	}
	return nil
}

// ValidateReportFormat rejects asking for JSON and Markdown output at once.
func ValidateReportFormat(jsonReport, markdownReport bool) error {
	if jsonReport && markdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
