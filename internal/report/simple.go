package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nao1215/fiisheet/internal/model"
)

// SimpleWriter outputs human-readable text for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because the output is often piped to files or CI logs.
type SimpleWriter struct {
	baseWriter

	// maxCell truncates long cells in grid output; zero disables it.
	maxCell int
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithMaxCell truncates grid cells longer than n characters.
func WithMaxCell(n int) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.maxCell = n
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		maxCell:    40,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteGrid outputs the grid as aligned columns.
func (w *SimpleWriter) WriteGrid(run *model.Run) (int, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s (%s) -> %s\n", run.Job, run.Strategy, run.Range))
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")

	if run.Grid.IsEmpty() {
		sb.WriteString("  no rows\n")
		return w.output.Write([]byte(sb.String()))
	}

	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	for _, row := range run.Grid {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = w.cell(cell)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return 0, err
	}

	sb.WriteString(fmt.Sprintf("\n%d rows x %d columns\n", run.Rows, run.Columns))
	return w.output.Write([]byte(sb.String()))
}

// WriteSummary outputs one status line per run followed by totals.
func (w *SimpleWriter) WriteSummary(runs []*model.Run) (int, error) {
	var sb strings.Builder

	for _, run := range runs {
		sb.WriteString(w.summaryLine(run))
		sb.WriteString("\n")
	}

	states, counts := stateCounts(runs)
	parts := make([]string, 0, len(states))
	for _, s := range states {
		parts = append(parts, fmt.Sprintf("%d %s", counts[s], s))
	}
	sb.WriteString(fmt.Sprintf("%d job(s): %s; %d row(s) written\n",
		len(runs), strings.Join(parts, ", "), totalRows(runs)))

	return w.output.Write([]byte(sb.String()))
}

// summaryLine formats a single run.
func (w *SimpleWriter) summaryLine(run *model.Run) string {
	switch run.State {
	case model.StateDone:
		verb := "written to"
		if run.DryRun {
			verb = "ready for"
		}
		return fmt.Sprintf("[+] %s: %d rows %s %s (%s)",
			run.Job, run.Rows, verb, run.Range, run.Duration().Round(time.Millisecond))
	case model.StateEmpty:
		return fmt.Sprintf("[!] %s: no data: %s", run.Job, run.ErrorMessage)
	default:
		return fmt.Sprintf("[x] %s: %s: %s", run.Job, run.State, run.ErrorMessage)
	}
}

// cell flattens and truncates a cell for column output.
func (w *SimpleWriter) cell(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	if w.maxCell > 0 {
		s = truncateString(s, w.maxCell)
	}
	return s
}
