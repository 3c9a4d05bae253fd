package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/leakwatch/internal/database"
	"github.com/nao1215/leakwatch/internal/model"
)

// JSONWriter outputs reports in JSON. Findings use the same shape as the
// read API, so the output of "leakwatch lookup --json" can be compared with
// a GET /search response.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables indented output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
// Output is compact unless an indent option is given.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteFindings writes findings as a JSON array; nil is written as [].
func (w *JSONWriter) WriteFindings(findings []model.Finding) (int, error) {
	if findings == nil {
		findings = []model.Finding{}
	}
	return w.writeJSON(findings)
}

// WriteStats writes the store overview as one object. Recent findings are
// included under "recent" when present.
func (w *JSONWriter) WriteStats(stats *database.Stats, recent []model.Finding) (int, error) {
	return w.writeJSON(struct {
		*database.Stats
		Recent []model.Finding `json:"recent,omitempty"`
	}{stats, recent})
}

// WriteRun writes the run summary with its duration in seconds.
func (w *JSONWriter) WriteRun(stats model.RunStats) (int, error) {
	return w.writeJSON(struct {
		model.RunStats
		DurationSeconds float64 `json:"duration_seconds"`
	}{stats, stats.Duration().Seconds()})
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	return w.output.Write(append(data, '\n'))
}
