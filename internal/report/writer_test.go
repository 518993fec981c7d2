package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/fiisheet/internal/grid"
	"github.com/nao1215/fiisheet/internal/model"
)

// createTestRun creates a finished run with a small grid.
func createTestRun() *model.Run {
	run := model.NewRun("fund10", "dom", "Fund10")
	run.Transition(model.StateAcquiring)
	run.Grid = grid.Grid{
		{"Fundo", "Setor"},
		{"ABCD11", "Log|ística"},
	}
	run.Rows = 2
	run.Columns = 2
	run.Range = "Fund10!A1:B2"
	run.Steps = []string{"acquire", "header", "normalize", "write"}
	run.Transition(model.StateDone)
	return run
}

// createTestRuns creates one run per outcome.
func createTestRuns() []*model.Run {
	empty := model.NewRun("empty", "api", "Empty")
	empty.Fail(model.StateEmpty, errors.New("no rows"))

	failed := model.NewRun("broken", "static", "Broken")
	failed.StartedAt = time.Now().Add(-time.Second)
	failed.Fail(model.StateFailed, errors.New("connection refused"))

	return []*model.Run{createTestRun(), empty, failed}
}

func TestNew(t *testing.T) {
	t.Parallel()

	for _, format := range Formats() {
		t.Run(format, func(t *testing.T) {
			t.Parallel()

			w, err := New(format, &bytes.Buffer{}, "v1.0.0")
			if err != nil {
				t.Fatalf("New(%q) error = %v", format, err)
			}
			if w == nil {
				t.Fatal("New returned nil writer")
			}
		})
	}

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()

		if _, err := New("yaml", &bytes.Buffer{}, ""); !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("New(yaml) error = %v, want ErrUnknownFormat", err)
		}
	})
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes aligned grid", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteGrid(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"fund10 (dom) -> Fund10!A1:B2", "Fundo   Setor", "ABCD11  Log|ística", "2 rows x 2 columns"} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q:\n%s", want, output)
			}
		}
	})

	t.Run("truncates long cells", func(t *testing.T) {
		t.Parallel()

		run := createTestRun()
		run.Grid = grid.Grid{{strings.Repeat("x", 20)}}

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithMaxCell(8)).WriteGrid(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "xxxxx...") {
			t.Errorf("expected truncated cell:\n%s", buf.String())
		}
	})

	t.Run("writes summary lines", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteSummary(createTestRuns()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"[+] fund10: 2 rows written to Fund10!A1:B2",
			"[!] empty: no data: no rows",
			"[x] broken: failed: connection refused",
			"3 job(s): 1 empty, 1 done, 1 failed; 2 row(s) written",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q:\n%s", want, output)
			}
		}
	})

	t.Run("dry run wording", func(t *testing.T) {
		t.Parallel()

		run := createTestRun()
		run.DryRun = true

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteSummary([]*model.Run{run}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "ready for Fund10!A1:B2") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes grid table with escaped separators", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteGrid(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"## fund10", "Fundo", `Log\|ística`, "`Fund10!A1:B2`"} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q:\n%s", want, output)
			}
		}
	})

	t.Run("empty grid writes a note", func(t *testing.T) {
		t.Parallel()

		run := model.NewRun("empty", "api", "Empty")

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteGrid(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "The grid has no rows.") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})

	t.Run("summary with failures has chart and caution", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteSummary(createTestRuns()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"# fiisheet run", "mermaid", "[!CAUTION]", "connection refused"} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q:\n%s", want, output)
			}
		}
	})

	t.Run("successful summary has a tip", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteSummary([]*model.Run{createTestRun()}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "[!TIP]") {
			t.Errorf("expected tip alert:\n%s", output)
		}
		if strings.Contains(output, "mermaid") {
			t.Error("a single outcome should not draw a chart")
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes grid document", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteGrid(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var doc GridDocument
		if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		want := GridDocument{
			Job:      "fund10",
			Strategy: "dom",
			Tab:      "Fund10",
			Range:    "Fund10!A1:B2",
			Rows:     2,
			Columns:  2,
			Grid:     grid.Grid{{"Fundo", "Setor"}, {"ABCD11", "Log|ística"}},
		}
		if diff := cmp.Diff(want, doc); diff != "" {
			t.Errorf("document mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty grid is an empty array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteGrid(model.NewRun("x", "api", "X")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), `"grid":[]`) {
			t.Errorf("unexpected output: %s", buf.String())
		}
	})

	t.Run("summary carries version, states and errors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint(), WithVersion("v1.2.3"))
		if _, err := w.WriteSummary(createTestRuns()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var doc struct {
			Version   string `json:"version"`
			TotalRows int    `json:"total_rows"`
			Runs      []struct {
				Job   string `json:"job"`
				State string `json:"state"`
				Error string `json:"error"`
			} `json:"runs"`
		}
		if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if doc.Version != "v1.2.3" || doc.TotalRows != 2 {
			t.Errorf("version = %q, total_rows = %d", doc.Version, doc.TotalRows)
		}
		if len(doc.Runs) != 3 || doc.Runs[1].State != "empty" || doc.Runs[2].Error != "connection refused" {
			t.Errorf("unexpected runs: %+v", doc.Runs)
		}
		if !strings.Contains(buf.String(), "\n  ") {
			t.Error("expected indented output")
		}
	})
}

func TestCSVWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes grid rows", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewCSVWriter(&buf).WriteGrid(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		records, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatalf("invalid CSV: %v", err)
		}
		want := [][]string{{"Fundo", "Setor"}, {"ABCD11", "Log|ística"}}
		if diff := cmp.Diff(want, records); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("custom delimiter", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewCSVWriter(&buf, WithComma(';')).WriteGrid(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(buf.String(), "Fundo;Setor\n") {
			t.Errorf("unexpected output: %q", buf.String())
		}
	})

	t.Run("writes summary records", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewCSVWriter(&buf).WriteSummary(createTestRuns()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		records, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatalf("invalid CSV: %v", err)
		}
		if len(records) != 4 {
			t.Fatalf("records = %d, want 4", len(records))
		}
		if records[0][0] != "job" || records[3][3] != "failed" || records[3][8] != "connection refused" {
			t.Errorf("unexpected records: %v", records)
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
		{"longer than ten", 10, "longer ..."},
		{"abcdef", 3, "abc"},
		{"Imobiliários", 8, "Imobi..."},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}
