package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/leakwatch/internal/crawler"
	"github.com/nao1215/leakwatch/internal/database"
	"github.com/nao1215/leakwatch/internal/extract"
	"github.com/nao1215/leakwatch/internal/model"
)

// fakeSearcher returns fixed links per query and records the queries.
type fakeSearcher struct {
	mu      sync.Mutex
	links   map[string][]string
	fail    map[string]error
	queries []string
	events  *eventLog
}

func (s *fakeSearcher) Search(_ context.Context, query string, _ int) crawler.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	s.events.add("search " + query)
	if err := s.fail[query]; err != nil {
		return crawler.SearchResult{Query: query, Links: []string{}, Err: err}
	}
	return crawler.SearchResult{Query: query, Links: s.links[query]}
}

// fakeFetcher returns fixed content per URL and records the calls.
type fakeFetcher struct {
	mu      sync.Mutex
	content map[string]string
	calls   []string
	events  *eventLog
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) crawler.FetchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	f.events.add("fetch " + url)
	text, ok := f.content[url]
	if !ok {
		return crawler.FetchResult{URL: url, StatusCode: 404, Err: crawler.ErrUnexpectedStatus}
	}
	return crawler.FetchResult{URL: url, StatusCode: 200, Text: text}
}

// memStore is an in-memory Store with injectable failures.
type memStore struct {
	mu        sync.Mutex
	findings  map[string]*model.Finding
	existsErr error
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{findings: make(map[string]*model.Finding)}
}

func (m *memStore) Exists(_ context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.findings[url]
	return ok, nil
}

func (m *memStore) Insert(_ context.Context, f *model.Finding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.findings[f.URL] = f
	return nil
}

// eventLog records the order of outbound requests and pauses.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.events)
}

// recordingSleep returns a SleepFunc that logs every pause without waiting.
func recordingSleep(events *eventLog, durations *[]time.Duration) SleepFunc {
	var mu sync.Mutex
	return func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		*durations = append(*durations, d)
		mu.Unlock()
		events.add(fmt.Sprintf("sleep %s", d))
		return ctx.Err()
	}
}

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const (
	topic    = "Indian datasets"
	platform = "pastebin.com"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestPipeline(searcher Searcher, fetcher Fetcher, store Store, opts ...Option) *Pipeline {
	base := []Option{
		WithLogger(discardLogger()),
		WithTopics([]string{topic}),
		WithPlatforms([]string{platform}),
		WithSleep(noSleep),
		WithClock(func() time.Time { return fixedNow }),
	}
	return New(searcher, fetcher, extract.New(), store, append(base, opts...)...)
}

func TestPipelineScenarios(t *testing.T) {
	t.Parallel()

	query := Query(topic, platform)
	url := "https://pastebin.com/abc"

	testCases := []struct {
		name    string
		content string
		stored  bool
		outcome func(model.RunStats) int
	}{
		{
			name:    "email page is stored",
			content: "contact me at a@b.com",
			stored:  true,
			outcome: func(s model.RunStats) int { return s.Stored },
		},
		{
			name:    "empty page is not stored",
			content: "",
			stored:  false,
			outcome: func(s model.RunStats) int { return s.Empty },
		},
		{
			name:    "page without matches is not stored",
			content: "hello world",
			stored:  false,
			outcome: func(s model.RunStats) int { return s.NoMatch },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			searcher := &fakeSearcher{links: map[string][]string{query: {url}}}
			fetcher := &fakeFetcher{content: map[string]string{url: tc.content}}
			store := newMemStore()

			stats, err := newTestPipeline(searcher, fetcher, store).Run(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.outcome(stats) != 1 {
				t.Errorf("unexpected stats %+v", stats)
			}

			f, ok := store.findings[url]
			if ok != tc.stored {
				t.Fatalf("stored = %v, want %v", ok, tc.stored)
			}
			if !tc.stored {
				return
			}
			if f.Query != topic {
				t.Errorf("query = %q, want %q", f.Query, topic)
			}
			if !f.Data.Emails.Equal(model.NewStringSet("a@b.com")) {
				t.Errorf("emails = %v", f.Data.Emails.Values())
			}
			if f.Data.Phones.Len() != 0 || f.Data.CreditCards.Len() != 0 {
				t.Errorf("phones and credit cards should be empty: %+v", f.Data)
			}
			if !f.Timestamp.Equal(fixedNow) {
				t.Errorf("timestamp = %v, want %v", f.Timestamp, fixedNow)
			}
		})
	}
}

func TestPipelineQueries(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{}
	p := New(searcher, &fakeFetcher{}, extract.New(), newMemStore(),
		WithLogger(discardLogger()),
		WithTopics([]string{"t1", "t2"}),
		WithPlatforms([]string{"pastebin.com", "dpaste.org"}),
		WithSleep(noSleep),
	)

	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"t1 site:pastebin.com",
		"t1 site:dpaste.org",
		"t2 site:pastebin.com",
		"t2 site:dpaste.org",
	}
	if !slices.Equal(searcher.queries, want) {
		t.Errorf("queries = %v, want %v", searcher.queries, want)
	}
	if stats.Queries != 4 {
		t.Errorf("expected 4 queries in stats, got %d", stats.Queries)
	}
	if !slices.Equal(p.StepNames(), []string{"fetch", "extract", "dedup", "store"}) {
		t.Errorf("unexpected steps %v", p.StepNames())
	}
}

func TestPipelineSkipsBlankEntries(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{}
	p := New(searcher, &fakeFetcher{}, extract.New(), newMemStore(),
		WithLogger(discardLogger()),
		WithTopics([]string{" t1 ", "", "   "}),
		WithPlatforms([]string{"pastebin.com", " ", ""}),
		WithSleep(noSleep),
	)

	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"t1 site:pastebin.com"}; !slices.Equal(searcher.queries, want) {
		t.Errorf("queries = %v, want %v", searcher.queries, want)
	}
	if stats.Queries != 1 {
		t.Errorf("expected 1 query in stats, got %d", stats.Queries)
	}
}

func TestPipelineFiltersLinks(t *testing.T) {
	t.Parallel()

	query := Query(topic, platform)
	searcher := &fakeSearcher{links: map[string][]string{query: {
		"https://example.com/a",
		"https://pastebin.com/a",
		"https://pastebin.com/a",
		"https://github.com/b",
	}}}
	fetcher := &fakeFetcher{content: map[string]string{"https://pastebin.com/a": "a@b.com"}}

	stats, err := newTestPipeline(searcher, fetcher, newMemStore()).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(fetcher.calls, []string{"https://pastebin.com/a"}) {
		t.Errorf("fetched %v", fetcher.calls)
	}
	if stats.Candidates != 1 {
		t.Errorf("expected 1 candidate, got %d", stats.Candidates)
	}
}

func TestPipelineSearchFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{
		links: map[string][]string{Query(topic, "dpaste.org"): {"https://dpaste.org/x"}},
		fail:  map[string]error{Query(topic, platform): errors.New("connection reset")},
	}
	fetcher := &fakeFetcher{content: map[string]string{"https://dpaste.org/x": "9876543210"}}
	store := newMemStore()

	p := newTestPipeline(searcher, fetcher, store, WithPlatforms([]string{platform, "dpaste.org"}))
	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Stored != 1 {
		t.Errorf("expected the second platform to be processed, stats %+v", stats)
	}
}

func TestPipelineStorageFailureAborts(t *testing.T) {
	t.Parallel()

	query := Query(topic, platform)
	links := []string{"https://pastebin.com/1", "https://pastebin.com/2"}
	content := map[string]string{links[0]: "a@b.com", links[1]: "c@d.com"}
	boom := errors.New("disk full")

	t.Run("exists failure", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{content: content}
		store := newMemStore()
		store.existsErr = boom

		_, err := newTestPipeline(&fakeSearcher{links: map[string][]string{query: links}}, fetcher, store).
			Run(context.Background())
		if !errors.Is(err, boom) {
			t.Fatalf("expected storage error, got %v", err)
		}
		if len(fetcher.calls) != 1 {
			t.Errorf("run should stop after the failing URL, fetched %v", fetcher.calls)
		}
	})

	t.Run("insert failure", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{content: content}
		store := newMemStore()
		store.insertErr = boom

		stats, err := newTestPipeline(&fakeSearcher{links: map[string][]string{query: links}}, fetcher, store).
			Run(context.Background())
		if !errors.Is(err, boom) {
			t.Fatalf("expected storage error, got %v", err)
		}
		if stats.FinishedAt.IsZero() {
			t.Error("stats should be finished even on failure")
		}
	})

	t.Run("duplicate on insert is not fatal", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{content: content}
		store := newMemStore()
		store.insertErr = fmt.Errorf("%w: raced", database.ErrDuplicateURL)

		stats, err := newTestPipeline(&fakeSearcher{links: map[string][]string{query: links}}, fetcher, store).
			Run(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stats.Duplicates != 2 || len(fetcher.calls) != 2 {
			t.Errorf("unexpected stats %+v, fetched %v", stats, fetcher.calls)
		}
	})
}

func TestPipelineDeduplicatesAcrossRuns(t *testing.T) {
	t.Parallel()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	query := Query(topic, platform)
	url := "https://pastebin.com/abc"
	searcher := &fakeSearcher{links: map[string][]string{query: {url}}}
	fetcher := &fakeFetcher{content: map[string]string{url: "contact me at a@b.com"}}
	p := newTestPipeline(searcher, fetcher, db)

	first, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if first.Stored != 1 || second.Stored != 0 || second.Duplicates != 1 {
		t.Errorf("unexpected stats first=%+v second=%+v", first, second)
	}
	n, err := db.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 stored finding after two runs, got %d", n)
	}
}

func TestPipelineSequentialSpacing(t *testing.T) {
	t.Parallel()

	query := Query(topic, platform)
	links := []string{
		"https://pastebin.com/stored",
		"https://pastebin.com/empty",
		"https://pastebin.com/nomatch",
		"https://pastebin.com/missing",
		"https://pastebin.com/stored2",
	}
	events := &eventLog{}
	searcher := &fakeSearcher{links: map[string][]string{query: links}, events: events}
	fetcher := &fakeFetcher{
		content: map[string]string{
			links[0]: "a@b.com",
			links[1]: "",
			links[2]: "hello world",
			links[4]: "9876543210",
		},
		events: events,
	}
	store := newMemStore()

	var durations []time.Duration
	delay := 2 * time.Second
	p := newTestPipeline(searcher, fetcher, store,
		WithDelay(delay),
		WithSleep(recordingSleep(events, &durations)),
	)

	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Every fetch is followed by exactly one pause before the next fetch.
	want := []string{"search " + query}
	for _, link := range links {
		want = append(want, "fetch "+link, "sleep 2s")
	}
	if got := events.list(); !slices.Equal(got, want) {
		t.Errorf("events:\n got %v\nwant %v", got, want)
	}
	for _, d := range durations {
		if d != delay {
			t.Errorf("pause %v, want %v", d, delay)
		}
	}

	if stats.Stored != 2 || stats.Empty != 2 || stats.NoMatch != 1 || stats.Candidates != 5 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestPipelineCancellation(t *testing.T) {
	t.Parallel()

	query := Query(topic, platform)
	links := []string{"https://pastebin.com/1", "https://pastebin.com/2", "https://pastebin.com/3"}
	fetcher := &fakeFetcher{content: map[string]string{}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sleeps := 0
	cancelOnSecondPause := func(ctx context.Context, _ time.Duration) error {
		sleeps++
		if sleeps == 2 {
			cancel()
		}
		return ctx.Err()
	}

	p := newTestPipeline(&fakeSearcher{links: map[string][]string{query: links}}, fetcher, newMemStore(),
		WithSleep(cancelOnSecondPause),
	)
	_, err := p.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(fetcher.calls) != 2 {
		t.Errorf("expected 2 fetches before cancellation, got %v", fetcher.calls)
	}
}

func TestSleepContext(t *testing.T) {
	t.Parallel()

	t.Run("waits", func(t *testing.T) {
		t.Parallel()

		start := time.Now()
		if err := sleepContext(context.Background(), 20*time.Millisecond); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if time.Since(start) < 20*time.Millisecond {
			t.Error("returned too early")
		}
	})

	t.Run("interrupted", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		outcome  Outcome
		expected string
	}{
		{OutcomePending, "pending"},
		{OutcomeEmpty, "empty"},
		{OutcomeNoMatch, "no_match"},
		{OutcomeDuplicate, "duplicate"},
		{OutcomeStored, "stored"},
		{Outcome(99), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if tc.outcome.String() != tc.expected {
				t.Errorf("got %q, expected %q", tc.outcome.String(), tc.expected)
			}
		})
	}
}
