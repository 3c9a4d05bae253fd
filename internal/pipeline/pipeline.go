package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/leakwatch/internal/crawler"
	"github.com/nao1215/leakwatch/internal/model"
)

const (
	// DefaultMaxResults caps the links collected per search query.
	DefaultMaxResults = 20

	// DefaultDelay is the pause after each processed URL.
	DefaultDelay = 2 * time.Second
)

// DefaultTopics returns the built-in base queries.
// A new slice is returned on every call.
func DefaultTopics() []string {
	return []string{
		"Indian datasets",
		"Indian leaked data",
		"India email leaks",
		"Indian phone numbers leak",
		"Indian credit card leaks",
	}
}

// SleepFunc pauses for d or until ctx is done, whichever comes first.
// It returns ctx.Err() if the pause was interrupted.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Pipeline orchestrates one crawl run.
type Pipeline struct {
	searcher Searcher
	filter   *crawler.LinkFilter
	steps    []Step

	topics     []string
	platforms  []string
	maxResults int
	delay      time.Duration

	sleep  SleepFunc
	now    func() time.Time
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithTopics sets the base queries.
func WithTopics(topics []string) Option {
	return func(p *Pipeline) {
		p.topics = topics
	}
}

// WithPlatforms sets the paste-platform allow-list. It drives both the
// site: operator of each query and the link filter.
func WithPlatforms(platforms []string) Option {
	return func(p *Pipeline) {
		p.platforms = platforms
	}
}

// WithMaxResults caps the links requested per search.
func WithMaxResults(n int) Option {
	return func(p *Pipeline) {
		p.maxResults = n
	}
}

// WithDelay sets the pause after each processed URL.
func WithDelay(d time.Duration) Option {
	return func(p *Pipeline) {
		p.delay = d
	}
}

// WithSleep replaces the pause implementation. Tests use it to observe
// the spacing between requests without waiting.
func WithSleep(sleep SleepFunc) Option {
	return func(p *Pipeline) {
		p.sleep = sleep
	}
}

// WithClock replaces the time source for finding timestamps and run stats.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a Pipeline from its collaborators.
func New(searcher Searcher, fetcher Fetcher, extractor Extractor, store Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		searcher:   searcher,
		topics:     DefaultTopics(),
		platforms:  crawler.DefaultPlatforms(),
		maxResults: DefaultMaxResults,
		delay:      DefaultDelay,
		sleep:      sleepContext,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.topics = trimmedNonBlank(p.topics)
	p.platforms = trimmedNonBlank(p.platforms)

	p.filter = crawler.NewLinkFilter(p.platforms)
	p.steps = []Step{
		NewFetchStep(fetcher, p.logger),
		NewExtractStep(extractor),
		NewDedupStep(store),
		NewStoreStep(store, p.now, p.logger),
	}

	return p
}

// StepNames returns the names of the per-URL steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// Query builds the search query for a topic restricted to a platform.
func Query(topic, platform string) string {
	return topic + " site:" + platform
}

// Run executes one full pass over topics x platforms.
//
// The returned stats are filled in even when the run fails. The error is
// non-nil only for storage failures and context cancellation.
func (p *Pipeline) Run(ctx context.Context) (model.RunStats, error) {
	stats := model.RunStats{StartedAt: p.now().UTC()}

	p.logger.Info("crawl run started",
		"topics", len(p.topics),
		"platforms", len(p.platforms),
	)

	for _, topic := range p.topics {
		for _, platform := range p.platforms {
			if err := ctx.Err(); err != nil {
				return p.finish(stats), err
			}

			query := Query(topic, platform)
			stats.Queries++

			res := p.searcher.Search(ctx, query, p.maxResults)
			if res.Err != nil {
				p.logger.Debug("search failed", "query", query, "error", res.Err)
			}

			links := p.filter.Filter(res.Links)
			p.logger.Debug("search completed",
				"query", query,
				"results", len(res.Links),
				"candidates", len(links),
			)

			for _, link := range links {
				if err := ctx.Err(); err != nil {
					return p.finish(stats), err
				}

				stats.Candidates++
				c := &Candidate{Topic: topic, URL: link}
				if err := p.process(ctx, c); err != nil {
					return p.finish(stats), err
				}
				record(&stats, c.Outcome)

				if err := p.sleep(ctx, p.delay); err != nil {
					return p.finish(stats), err
				}
			}
		}
	}

	stats = p.finish(stats)
	p.logger.Info("crawl run finished",
		"queries", stats.Queries,
		"candidates", stats.Candidates,
		"stored", stats.Stored,
		"duplicates", stats.Duplicates,
		"duration", stats.Duration(),
	)
	return stats, nil
}

// process runs the step chain for one candidate until a step settles it.
func (p *Pipeline) process(ctx context.Context, c *Candidate) error {
	for _, step := range p.steps {
		if err := step.Do(ctx, c); err != nil {
			p.logger.Debug("step failed", "step", step.Name(), "url", c.URL, "error", err)
			return err
		}
		if c.settled() {
			p.logger.Debug("candidate settled", "step", step.Name(), "url", c.URL, "outcome", c.Outcome)
			return nil
		}
	}
	return nil
}

func (p *Pipeline) finish(stats model.RunStats) model.RunStats {
	stats.FinishedAt = p.now().UTC()
	return stats
}

func record(stats *model.RunStats, outcome Outcome) {
	switch outcome {
	case OutcomeEmpty:
		stats.Empty++
	case OutcomeNoMatch:
		stats.Fetched++
		stats.NoMatch++
	case OutcomeDuplicate:
		stats.Fetched++
		stats.Duplicates++
	case OutcomeStored:
		stats.Fetched++
		stats.Stored++
	case OutcomePending:
	}
}

// sleepContext waits for d unless ctx is done first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// trimmedNonBlank trims each value and drops the empty ones.
func trimmedNonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
