package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/fiisheet/internal/grid"
	"github.com/nao1215/fiisheet/internal/model"
)

// JSONWriter outputs grids and summaries in JSON format.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because the documents are small and the run record already
// carries its struct tags.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is stamped on summaries.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion sets the version recorded in summaries.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// GridDocument is the JSON shape of a previewed grid.
type GridDocument struct {
	Job      string    `json:"job"`
	Strategy string    `json:"strategy"`
	Tab      string    `json:"tab"`
	Range    string    `json:"range"`
	Rows     int       `json:"rows"`
	Columns  int       `json:"columns"`
	Grid     grid.Grid `json:"grid"`
}

// SummaryDocument is the JSON shape of a run summary.
type SummaryDocument struct {
	// Version is the fiisheet version that produced the runs.
	Version string `json:"version,omitempty"`

	// TotalRows is the sum of rows over successful runs.
	TotalRows int `json:"total_rows"`

	Runs []*model.Run `json:"runs"`
}

// WriteGrid outputs the run's grid with its shape.
func (w *JSONWriter) WriteGrid(run *model.Run) (int, error) {
	g := run.Grid
	if g == nil {
		g = grid.Grid{}
	}
	return w.writeJSON(GridDocument{
		Job:      run.Job,
		Strategy: run.Strategy,
		Tab:      run.Tab,
		Range:    run.Range,
		Rows:     run.Rows,
		Columns:  run.Columns,
		Grid:     g,
	})
}

// WriteSummary outputs every run record.
func (w *JSONWriter) WriteSummary(runs []*model.Run) (int, error) {
	if runs == nil {
		runs = []*model.Run{}
	}
	return w.writeJSON(SummaryDocument{
		Version:   w.version,
		TotalRows: totalRows(runs),
		Runs:      runs,
	})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
