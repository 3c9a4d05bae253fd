package report

import (
	"io"

	"github.com/nao1215/leakwatch/internal/database"
	"github.com/nao1215/leakwatch/internal/model"
)

// Writer renders leakwatch data to an output destination.
// Each method returns the number of bytes written.
type Writer interface {
	// WriteFindings renders lookup or listing results.
	WriteFindings(findings []model.Finding) (int, error)

	// WriteStats renders a store overview followed by the most recent
	// findings, which may be empty.
	WriteStats(stats *database.Stats, recent []model.Finding) (int, error)

	// WriteRun renders the summary of one crawl run.
	WriteRun(stats model.RunStats) (int, error)
}

// Format selects a Writer implementation.
type Format int

const (
	// FormatText is human-readable text.
	FormatText Format = iota
	// FormatJSON is indented JSON.
	FormatJSON
	// FormatMarkdown is GitHub Flavored Markdown.
	FormatMarkdown
)

// New returns the Writer for format.
func New(format Format, output io.Writer) Writer {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint())
	case FormatMarkdown:
		return NewMarkdownWriter(output)
	default:
		return NewTextWriter(output)
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// totals counts values per category across findings.
func totals(findings []model.Finding) map[model.Category]int {
	out := make(map[model.Category]int, len(model.Categories()))
	for _, f := range findings {
		for _, c := range model.Categories() {
			out[c] += f.Data.Set(c).Len()
		}
	}
	return out
}

// truncateString truncates a string to maxLen bytes with an ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
