package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/fiisheet/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs grids and run summaries in Markdown format.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteGrid outputs the grid as a markdown table whose header is the first
// grid row.
func (w *MarkdownWriter) WriteGrid(run *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H2(run.Job)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Strategy", run.Strategy},
			{"Range", "`" + run.Range + "`"},
			{"Rows", strconv.Itoa(run.Rows)},
			{"Columns", strconv.Itoa(run.Columns)},
		},
	})
	md.PlainText("")

	if run.Grid.IsEmpty() {
		md.Note("The grid has no rows.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, 0, len(run.Grid)-1)
	for _, row := range run.Grid[1:] {
		rows = append(rows, escapeCells(row))
	}
	md.Table(markdown.TableSet{
		Header: escapeCells(run.Grid[0]),
		Rows:   rows,
	})
	md.PlainText("")

	return len(md.String()), md.Build()
}

// WriteSummary outputs a table of runs, a state chart and an alert.
func (w *MarkdownWriter) WriteSummary(runs []*model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("fiisheet run")
	md.PlainText("")

	rows := make([][]string, len(runs))
	for i, run := range runs {
		message := run.ErrorMessage
		if message == "" {
			message = "-"
		}
		rows[i] = []string{
			run.Job,
			run.State.String(),
			strconv.Itoa(run.Rows),
			"`" + run.Range + "`",
			run.Duration().Round(time.Millisecond).String(),
			escapeCell(truncateString(message, 80)),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Job", "State", "Rows", "Range", "Duration", "Error"},
		Rows:   rows,
	})
	md.PlainText("")

	states, counts := stateCounts(runs)
	if len(states) > 1 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Run outcomes"),
			piechart.WithShowData(true),
		)
		for _, s := range states {
			chart.LabelAndIntValue(s.String(), uint64(counts[s]))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case counts[model.StateFailed] > 0:
		md.Cautionf("%d job(s) failed.", counts[model.StateFailed])
	case counts[model.StateEmpty] > 0:
		md.Warningf("%d job(s) found no table or no rows.", counts[model.StateEmpty])
	default:
		md.Tip(fmt.Sprintf("All jobs succeeded, %d row(s) in total.", totalRows(runs)))
	}

	return len(md.String()), md.Build()
}

// escapeCells escapes every cell of row for a markdown table.
func escapeCells(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = escapeCell(cell)
	}
	return out
}

// escapeCell keeps a cell on one line and escapes column separators.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
