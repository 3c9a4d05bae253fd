package report

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/leakwatch/internal/database"
	"github.com/nao1215/leakwatch/internal/model"
)

const markdownDateLayout = "2006-01-02 15:04:05 MST"

// MarkdownWriter outputs reports in GitHub Flavored Markdown.
type MarkdownWriter struct {
	baseWriter

	title cases.Caser
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		title:      cases.Title(language.English),
	}
}

// WriteFindings renders a summary table followed by one section per finding.
func (w *MarkdownWriter) WriteFindings(findings []model.Finding) (int, error) {
	return w.render(func(md *markdown.Markdown) {
		md.H1("Leakwatch Lookup")
		md.PlainText("")

		if len(findings) == 0 {
			md.Tip("No stored finding contains the requested values.")
			md.PlainText("")
			w.writeFooter(md)
			return
		}

		md.Warningf("%d source(s) expose the requested values.", len(findings))
		md.PlainText("")

		w.writeFindingsTable(md, findings)
		w.writePieChart(md, "Values by Category", totals(findings))

		md.H2("Sources")
		md.PlainText("")
		for i, f := range findings {
			md.PlainTextf("**%d. %s**", i+1, f.URL)
			md.PlainText("")
			for _, c := range model.Categories() {
				values := f.Data.Set(c).Values()
				if len(values) == 0 {
					continue
				}
				md.Details(w.title.String(c.Label())+" ("+strconv.Itoa(len(values))+")", strings.Join(values, "<br>"))
			}
			md.PlainText("")
		}
		w.writeFooter(md)
	})
}

// WriteStats renders the store overview and a table of recent findings.
func (w *MarkdownWriter) WriteStats(stats *database.Stats, recent []model.Finding) (int, error) {
	return w.render(func(md *markdown.Markdown) {
		md.H1("Leakwatch Store Report")
		md.PlainText("")

		first, last := "-", "-"
		if !stats.FirstSeen.IsZero() {
			first = stats.FirstSeen.UTC().Format(markdownDateLayout)
			last = stats.LastSeen.UTC().Format(markdownDateLayout)
		}
		md.Table(markdown.TableSet{
			Header: []string{"Property", "Value"},
			Rows: [][]string{
				{"Findings", strconv.Itoa(stats.Findings)},
				{"First Seen", first},
				{"Last Seen", last},
			},
		})
		md.PlainText("")

		if stats.Findings == 0 {
			md.Note("The store is empty. Run `leakwatch crawl` to collect findings.")
			md.PlainText("")
			w.writeFooter(md)
			return
		}

		md.H2("Categories")
		md.PlainText("")
		rows := make([][]string, 0, len(stats.Categories))
		values := make(map[model.Category]int, len(stats.Categories))
		for _, cs := range stats.Categories {
			rows = append(rows, []string{
				w.title.String(cs.Category.Label()),
				strconv.Itoa(cs.Values),
				strconv.Itoa(cs.Distinct),
				strconv.Itoa(cs.Findings),
			})
			values[cs.Category] = cs.Distinct
		}
		md.Table(markdown.TableSet{
			Header: []string{"Category", "Values", "Distinct", "Findings"},
			Rows:   rows,
		})
		md.PlainText("")
		w.writePieChart(md, "Distinct Values by Category", values)

		if len(stats.Queries) > 0 {
			md.H2("Queries")
			md.PlainText("")
			qrows := make([][]string, len(stats.Queries))
			for i, qs := range stats.Queries {
				qrows[i] = []string{w.title.String(qs.Query), strconv.Itoa(qs.Findings)}
			}
			md.Table(markdown.TableSet{
				Header: []string{"Query", "Findings"},
				Rows:   qrows,
			})
			md.PlainText("")
		}

		if len(recent) > 0 {
			md.H2("Recent Findings")
			md.PlainText("")
			w.writeFindingsTable(md, recent)
		}
		w.writeFooter(md)
	})
}

// WriteRun renders the counters of one crawl run.
func (w *MarkdownWriter) WriteRun(stats model.RunStats) (int, error) {
	return w.render(func(md *markdown.Markdown) {
		md.H1("Leakwatch Crawl Run")
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Counter", "Value"},
			Rows: [][]string{
				{"Queries", strconv.Itoa(stats.Queries)},
				{"Candidates", strconv.Itoa(stats.Candidates)},
				{"Fetched", strconv.Itoa(stats.Fetched)},
				{"Empty", strconv.Itoa(stats.Empty)},
				{"No Match", strconv.Itoa(stats.NoMatch)},
				{"Duplicates", strconv.Itoa(stats.Duplicates)},
				{"Stored", strconv.Itoa(stats.Stored)},
				{"Duration", stats.Duration().String()},
			},
		})
		md.PlainText("")
		if stats.Stored > 0 {
			md.Importantf("%d new finding(s) stored.", stats.Stored)
		} else {
			md.Note("No new findings.")
		}
		md.PlainText("")
		w.writeFooter(md)
	})
}

// writeFindingsTable writes one row per finding with per-category counts.
func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	rows := make([][]string, len(findings))
	for i, f := range findings {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			truncateString(f.URL, 60),
			w.title.String(f.Query),
			strconv.Itoa(f.Data.Emails.Len()),
			strconv.Itoa(f.Data.Phones.Len()),
			strconv.Itoa(f.Data.CreditCards.Len()),
			formatMarkdownTime(f),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "URL", "Query", "Emails", "Phones", "Credit Cards", "Seen"},
		Rows:   rows,
	})
	md.PlainText("")
}

// render builds the document in memory so that the byte count is exact.
func (w *MarkdownWriter) render(build func(md *markdown.Markdown)) (int, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)
	build(md)
	if err := md.Build(); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}

// writePieChart writes a mermaid pie chart; categories with zero count are left out.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, title string, counts map[model.Category]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle(title),
		piechart.WithShowData(true),
	)

	var drawn bool
	for _, c := range model.Categories() {
		if n := counts[c]; n > 0 {
			chart.LabelAndIntValue(w.title.String(c.Label()), uint64(n))
			drawn = true
		}
	}
	if !drawn {
		return
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by leakwatch*")
}

func formatMarkdownTime(f model.Finding) string {
	if f.Timestamp.IsZero() {
		return "-"
	}
	return f.Timestamp.UTC().Format(markdownDateLayout)
}
