// Package crawler talks to the outside web on behalf of the crawl pipeline.
//
// # Components
//
//   - LinkFilter: keeps only URLs hosted on an allow-listed paste platform
//   - SearchClient: queries the DuckDuckGo HTML endpoint and collects result URLs
//   - Fetcher: downloads a single page and returns its body as text
//
// Both network components are fail-soft. A search or fetch never returns
// an error to the caller; instead the result carries an empty payload and
// keeps the cause in its Err field for diagnostics. Callers treat an empty
// result as "nothing found this round" and move on.
//
// # Usage
//
//	client, err := transport.NewHTTPClient(transport.Options{})
//	if err != nil {
//	    return err
//	}
//	search := crawler.NewSearchClient(client)
//	fetcher := crawler.NewFetcher(client)
//	filter := crawler.NewLinkFilter(crawler.DefaultPlatforms())
//
//	res := search.Search(ctx, "Indian datasets site:pastebin.com", 20)
//	for _, link := range filter.Filter(res.Links) {
//	    page := fetcher.Fetch(ctx, link)
//	    ...
//	}
//
// # Politeness
//
// Neither component retries. Spacing between page fetches is the
// pipeline's job; the SearchClient can optionally pace its own requests
// with a token bucket (see WithSearchInterval).
package crawler
