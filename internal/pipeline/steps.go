package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/leakwatch/internal/crawler"
	"github.com/nao1215/leakwatch/internal/database"
	"github.com/nao1215/leakwatch/internal/model"
)

// Step processes a candidate URL.
//
// A step either settles the candidate by setting its Outcome, which ends
// the chain for that URL, or leaves it pending for the next step. A
// returned error is fatal for the whole run; recoverable problems must be
// absorbed by the step itself.
type Step interface {
	// Do executes the step for one candidate.
	Do(ctx context.Context, c *Candidate) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Searcher finds candidate URLs for a query.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) crawler.SearchResult
}

// Fetcher downloads a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) crawler.FetchResult
}

// Extractor finds sensitive values in text.
type Extractor interface {
	Extract(text string) model.Data
}

// Store persists findings.
type Store interface {
	Exists(ctx context.Context, url string) (bool, error)
	Insert(ctx context.Context, f *model.Finding) error
}

// FetchStep downloads the candidate page.
// A failed or empty fetch settles the candidate as OutcomeEmpty.
type FetchStep struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// NewFetchStep creates a FetchStep.
func NewFetchStep(fetcher Fetcher, logger *slog.Logger) *FetchStep {
	return &FetchStep{fetcher: fetcher, logger: logger}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do executes the fetch step.
func (s *FetchStep) Do(ctx context.Context, c *Candidate) error {
	res := s.fetcher.Fetch(ctx, c.URL)
	if res.Err != nil {
		s.logger.Debug("fetch failed", "url", c.URL, "status", res.StatusCode, "error", res.Err)
	}
	if res.Text == "" {
		c.Outcome = OutcomeEmpty
		return nil
	}
	c.Text = res.Text
	return nil
}

// ExtractStep runs the extractor over the fetched text.
// A page without any sensitive value settles as OutcomeNoMatch.
type ExtractStep struct {
	extractor Extractor
}

// NewExtractStep creates an ExtractStep.
func NewExtractStep(extractor Extractor) *ExtractStep {
	return &ExtractStep{extractor: extractor}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do executes the extract step.
func (s *ExtractStep) Do(_ context.Context, c *Candidate) error {
	c.Data = s.extractor.Extract(c.Text)
	if c.Data.IsEmpty() {
		c.Outcome = OutcomeNoMatch
	}
	return nil
}

// DedupStep skips URLs that already have a stored finding.
type DedupStep struct {
	store Store
}

// NewDedupStep creates a DedupStep.
func NewDedupStep(store Store) *DedupStep {
	return &DedupStep{store: store}
}

// Name returns the step name.
func (s *DedupStep) Name() string {
	return "dedup"
}

// Do executes the dedup step.
func (s *DedupStep) Do(ctx context.Context, c *Candidate) error {
	exists, err := s.store.Exists(ctx, c.URL)
	if err != nil {
		return fmt.Errorf("checking %s: %w", c.URL, err)
	}
	if exists {
		c.Outcome = OutcomeDuplicate
	}
	return nil
}

// StoreStep writes a new finding for the candidate.
type StoreStep struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger
}

// NewStoreStep creates a StoreStep. now supplies the capture time.
func NewStoreStep(store Store, now func() time.Time, logger *slog.Logger) *StoreStep {
	return &StoreStep{store: store, now: now, logger: logger}
}

// Name returns the step name.
func (s *StoreStep) Name() string {
	return "store"
}

// Do executes the store step.
func (s *StoreStep) Do(ctx context.Context, c *Candidate) error {
	finding := model.NewFinding(c.Topic, c.URL, c.Data, s.now())
	if err := s.store.Insert(ctx, finding); err != nil {
		// Lost a race with another writer; the row exists.
		if errors.Is(err, database.ErrDuplicateURL) {
			c.Outcome = OutcomeDuplicate
			return nil
		}
		return fmt.Errorf("storing finding for %s: %w", c.URL, err)
	}

	c.Outcome = OutcomeStored
	s.logger.Info("stored finding",
		"url", c.URL,
		"query", c.Topic,
		"emails", c.Data.Emails.Len(),
		"phones", c.Data.Phones.Len(),
		"credit_cards", c.Data.CreditCards.Len(),
	)
	return nil
}
