package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/leakwatch/internal/database"
	"github.com/nao1215/leakwatch/internal/model"
)

// createTestFindings returns two findings with values in every category.
func createTestFindings() []model.Finding {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := model.NewData()
	first.Emails.Add("a@b.com")
	first.Emails.Add("c@d.org")
	first.Phones.Add("9876543210")

	second := model.NewData()
	second.CreditCards.Add("4111 1111 1111 1111")

	return []model.Finding{
		*model.NewFinding("India email leaks", "https://pastebin.com/abc", first, at),
		*model.NewFinding("Indian credit card leaks", "https://github.com/x/y", second, at.Add(time.Hour)),
	}
}

func createTestStats() *database.Stats {
	return &database.Stats{
		Findings: 2,
		Categories: []database.CategoryStats{
			{Category: model.CategoryEmail, Values: 2, Distinct: 2, Findings: 1},
			{Category: model.CategoryPhone, Values: 1, Distinct: 1, Findings: 1},
			{Category: model.CategoryCreditCard, Values: 1, Distinct: 1, Findings: 1},
		},
		Queries: []database.QueryStats{
			{Query: "India email leaks", Findings: 1},
			{Query: "Indian credit card leaks", Findings: 1},
		},
		FirstSeen: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		LastSeen:  time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC),
	}
}

func createTestRun() model.RunStats {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return model.RunStats{
		Queries: 60, Candidates: 4, Fetched: 3, Empty: 1, NoMatch: 1, Duplicates: 1, Stored: 1,
		StartedAt: start, FinishedAt: start.Add(90 * time.Second),
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, ok := New(FormatText, &buf).(*TextWriter); !ok {
		t.Error("expected TextWriter")
	}
	if _, ok := New(FormatJSON, &buf).(*JSONWriter); !ok {
		t.Error("expected JSONWriter")
	}
	if _, ok := New(FormatMarkdown, &buf).(*MarkdownWriter); !ok {
		t.Error("expected MarkdownWriter")
	}
}

func TestTextWriter(t *testing.T) {
	t.Parallel()

	t.Run("findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewTextWriter(&buf).WriteFindings(createTestFindings())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
		}

		output := buf.String()
		for _, want := range []string{"2 finding(s)", "https://pastebin.com/abc", "emails (2): a@b.com, c@d.org", "credit cards (1)"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected %q in output:\n%s", want, output)
			}
		}
		if strings.Contains(output, "phones (0)") {
			t.Error("empty categories should be omitted")
		}
	})

	t.Run("no findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf).WriteFindings(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No findings.") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("value cap", func(t *testing.T) {
		t.Parallel()

		data := model.NewData()
		for _, e := range []string{"a@x.io", "b@x.io", "c@x.io"} {
			data.Emails.Add(e)
		}
		f := *model.NewFinding("q", "https://pastebin.com/z", data, time.Now())

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf, WithMaxValues(2)).WriteFindings([]model.Finding{f}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "a@x.io, b@x.io, ... (+1 more)") {
			t.Errorf("expected truncated list, got:\n%s", buf.String())
		}
	})

	t.Run("stats", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf).WriteStats(createTestStats(), nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"LEAKWATCH STORE REPORT", "Findings:   2", "credit cards", "India email leaks"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected %q in output:\n%s", want, output)
			}
		}
	})

	t.Run("stats with recent findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf).WriteStats(createTestStats(), createTestFindings()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"Recent findings (2)", "[2] https://github.com/x/y"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected %q in output:\n%s", want, output)
			}
		}
	})

	t.Run("empty stats", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf).WriteStats(&database.Stats{}, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "The store is empty") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})

	t.Run("run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf).WriteRun(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "Crawl finished in 1m30s") || !strings.Contains(output, "stored:     1") {
			t.Errorf("unexpected output:\n%s", output)
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("findings match API shape", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteFindings(createTestFindings()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded []model.Finding
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 2 || !decoded[0].Data.Emails.Contains("a@b.com") {
			t.Errorf("unexpected decoded findings %+v", decoded)
		}
	})

	t.Run("nil findings is empty array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteFindings(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.TrimSpace(buf.String()) != "[]" {
			t.Errorf("expected [], got %q", buf.String())
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).WriteStats(createTestStats(), nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"findings\": 2") {
			t.Errorf("expected indented output, got:\n%s", buf.String())
		}
	})

	t.Run("stats with recent findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteStats(createTestStats(), createTestFindings()[:1]); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var decoded struct {
			Findings int             `json:"findings"`
			Recent   []model.Finding `json:"recent"`
		}
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Findings != 2 || len(decoded.Recent) != 1 {
			t.Errorf("unexpected stats JSON: %s", buf.String())
		}
	})

	t.Run("run includes duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteRun(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var decoded map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded["duration_seconds"] != float64(90) || decoded["stored"] != float64(1) {
			t.Errorf("unexpected run JSON %v", decoded)
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewMarkdownWriter(&buf).WriteFindings(createTestFindings())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
		}

		output := buf.String()
		for _, want := range []string{
			"# Leakwatch Lookup",
			"India Email Leaks",
			"https://pastebin.com/abc",
			"```mermaid",
			"pie",
			"Credit Cards",
			"[!WARNING]",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected %q in output:\n%s", want, output)
			}
		}
	})

	t.Run("no findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteFindings(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!TIP]") || strings.Contains(buf.String(), "mermaid") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})

	t.Run("stats", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteStats(createTestStats(), nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"# Leakwatch Store Report", "## Categories", "## Queries", "Indian Credit Card Leaks"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected %q in output:\n%s", want, output)
			}
		}
	})

	t.Run("empty stats", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteStats(&database.Stats{}, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!NOTE]") || strings.Contains(buf.String(), "## Categories") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})

	t.Run("run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteRun(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "# Leakwatch Crawl Run") || !strings.Contains(buf.String(), "[!IMPORTANT]") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := truncateString(tt.in, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
			}
		})
	}
}
