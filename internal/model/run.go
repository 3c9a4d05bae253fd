package model

import "time"

// RunStats summarizes one pass of the crawl pipeline.
// The counters are informational; a run's outcome is its returned error.
type RunStats struct {
	// Queries is the number of composite search queries issued.
	Queries int `json:"queries"`

	// Candidates is the number of allow-listed URLs considered.
	Candidates int `json:"candidates"`

	// Fetched is the number of URLs that returned non-empty content.
	Fetched int `json:"fetched"`

	// Empty is the number of URLs whose fetch produced no content.
	Empty int `json:"empty"`

	// NoMatch is the number of fetched pages without any sensitive value.
	NoMatch int `json:"no_match"`

	// Duplicates is the number of URLs skipped because they were already stored.
	Duplicates int `json:"duplicates"`

	// Stored is the number of new findings written.
	Stored int `json:"stored"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended, successfully or not.
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns how long the run took.
func (s RunStats) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
