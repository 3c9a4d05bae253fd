package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/leakwatch/internal/database"
	"github.com/nao1215/leakwatch/internal/model"
)

const (
	textRule       = "========================================"
	textDateLayout = "2006-01-02 15:04:05 MST"
)

// TextWriter outputs human-readable plain text.
type TextWriter struct {
	baseWriter

	// maxValues caps how many values per category are listed for a finding.
	maxValues int
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithMaxValues caps how many values per category are printed for each
// finding. Zero or less prints all of them.
func WithMaxValues(n int) TextWriterOption {
	return func(w *TextWriter) {
		w.maxValues = n
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{baseWriter: newBaseWriter(output), maxValues: 10}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteFindings lists each finding with its values.
func (w *TextWriter) WriteFindings(findings []model.Finding) (int, error) {
	var sb strings.Builder

	if len(findings) == 0 {
		sb.WriteString("No findings.\n")
		return io.WriteString(w.output, sb.String())
	}

	fmt.Fprintf(&sb, "%d finding(s)\n\n", len(findings))
	w.writeFindings(&sb, findings)
	return io.WriteString(w.output, sb.String())
}

func (w *TextWriter) writeFindings(sb *strings.Builder, findings []model.Finding) {
	for i, f := range findings {
		fmt.Fprintf(sb, "[%d] %s\n", i+1, f.URL)
		fmt.Fprintf(sb, "    query: %s\n", f.Query)
		fmt.Fprintf(sb, "    seen:  %s\n", formatTime(f.Timestamp))
		for _, c := range model.Categories() {
			values := f.Data.Set(c).Values()
			if len(values) == 0 {
				continue
			}
			fmt.Fprintf(sb, "    %s (%d): %s\n", c.Label(), len(values), w.joinValues(values))
		}
		sb.WriteString("\n")
	}
}

func (w *TextWriter) joinValues(values []string) string {
	if w.maxValues <= 0 || len(values) <= w.maxValues {
		return strings.Join(values, ", ")
	}
	return strings.Join(values[:w.maxValues], ", ") + fmt.Sprintf(", ... (+%d more)", len(values)-w.maxValues)
}

// WriteStats prints the store overview and the recent findings.
func (w *TextWriter) WriteStats(stats *database.Stats, recent []model.Finding) (int, error) {
	var sb strings.Builder

	sb.WriteString(textRule + "\n")
	sb.WriteString("LEAKWATCH STORE REPORT\n")
	sb.WriteString(textRule + "\n\n")

	fmt.Fprintf(&sb, "Findings:   %d\n", stats.Findings)
	if stats.Findings == 0 {
		sb.WriteString("\nThe store is empty. Run \"leakwatch crawl\" to collect findings.\n")
		return io.WriteString(w.output, sb.String())
	}
	fmt.Fprintf(&sb, "First seen: %s\n", formatTime(stats.FirstSeen))
	fmt.Fprintf(&sb, "Last seen:  %s\n\n", formatTime(stats.LastSeen))

	sb.WriteString("By category\n")
	sb.WriteString("-----------\n")
	for _, cs := range stats.Categories {
		fmt.Fprintf(&sb, "  %-13s %6d values  %6d distinct  %6d findings\n",
			cs.Category.Label(), cs.Values, cs.Distinct, cs.Findings)
	}

	if len(stats.Queries) > 0 {
		sb.WriteString("\nBy query\n")
		sb.WriteString("--------\n")
		for _, qs := range stats.Queries {
			fmt.Fprintf(&sb, "  %6d  %s\n", qs.Findings, qs.Query)
		}
	}

	if len(recent) > 0 {
		fmt.Fprintf(&sb, "\nRecent findings (%d)\n", len(recent))
		sb.WriteString("---------------\n")
		w.writeFindings(&sb, recent)
	}
	return io.WriteString(w.output, sb.String())
}

// WriteRun prints the counters of one crawl run.
func (w *TextWriter) WriteRun(stats model.RunStats) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Crawl finished in %s\n", stats.Duration().Round(time.Millisecond))
	fmt.Fprintf(&sb, "  queries:    %d\n", stats.Queries)
	fmt.Fprintf(&sb, "  candidates: %d\n", stats.Candidates)
	fmt.Fprintf(&sb, "  fetched:    %d\n", stats.Fetched)
	fmt.Fprintf(&sb, "  empty:      %d\n", stats.Empty)
	fmt.Fprintf(&sb, "  no match:   %d\n", stats.NoMatch)
	fmt.Fprintf(&sb, "  duplicates: %d\n", stats.Duplicates)
	fmt.Fprintf(&sb, "  stored:     %d\n", stats.Stored)
	return io.WriteString(w.output, sb.String())
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(textDateLayout)
}
