// Package pipeline runs the leak-discovery crawl.
//
// One run walks the product of base topics and paste platforms. For every
// pair it issues the search query "<topic> site:<platform>", keeps the
// allow-listed result URLs, and pushes each URL through a chain of steps:
//
//	fetch -> extract -> dedup -> store
//
// A step ends the chain for a URL by settling the candidate's Outcome
// (empty page, no match, duplicate, stored). After every URL, whatever
// its outcome, the pipeline pauses for a fixed delay before the next
// request, so a run never has more than one outbound request in flight.
//
// Search, fetch and extraction problems are swallowed per URL and logged
// at debug level. Storage failures abort the run and are returned to the
// caller, except ErrDuplicateURL from the store, which is counted as a
// duplicate: the row exists, which is the desired end state.
//
// Context cancellation stops the run between URLs or during the pause.
package pipeline
