package pipeline

import "github.com/nao1215/leakwatch/internal/model"

// Outcome is how processing of a candidate URL ended.
type Outcome int

const (
	// OutcomePending means no step has settled the candidate yet.
	OutcomePending Outcome = iota
	// OutcomeEmpty means the fetch produced no content.
	OutcomeEmpty
	// OutcomeNoMatch means the content had no sensitive values.
	OutcomeNoMatch
	// OutcomeDuplicate means a finding for the URL was already stored.
	OutcomeDuplicate
	// OutcomeStored means a new finding was written.
	OutcomeStored
)

// String returns the outcome name used in logs.
func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeEmpty:
		return "empty"
	case OutcomeNoMatch:
		return "no_match"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeStored:
		return "stored"
	default:
		return "unknown"
	}
}

// Candidate is one allow-listed URL travelling through the steps.
// It lives only for the duration of a single iteration.
type Candidate struct {
	// Topic is the base query that surfaced the URL.
	Topic string

	// URL is the page to fetch.
	URL string

	// Text is the fetched page content.
	Text string

	// Data is what the extractor found in Text.
	Data model.Data

	// Outcome is set by the step that ends processing.
	Outcome Outcome
}

// settled reports whether a step has ended processing.
func (c *Candidate) settled() bool {
	return c.Outcome != OutcomePending
}
