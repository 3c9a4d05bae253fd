// Package report renders lookup results, store statistics and crawl run
// summaries for the command line.
//
// Three formats share the Writer interface:
//   - TextWriter: plain text for terminals (default)
//   - JSONWriter: machine-readable output, same shapes as the read API
//   - MarkdownWriter: GitHub Flavored Markdown with tables and a mermaid
//     pie chart of value categories
package report
