package report

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/nao1215/fiisheet/internal/model"
)

// CSVWriter outputs grids and summaries as CSV records.
type CSVWriter struct {
	baseWriter

	// comma is the field delimiter.
	comma rune
}

// CSVWriterOption configures a CSVWriter.
type CSVWriterOption func(*CSVWriter)

// WithComma sets the field delimiter, for example ';' for spreadsheets
// using a decimal comma.
func WithComma(r rune) CSVWriterOption {
	return func(w *CSVWriter) {
		w.comma = r
	}
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer, opts ...CSVWriterOption) *CSVWriter {
	w := &CSVWriter{
		baseWriter: newBaseWriter(output),
		comma:      ',',
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteGrid outputs every grid row as one record.
func (w *CSVWriter) WriteGrid(run *model.Run) (int, error) {
	records := make([][]string, len(run.Grid))
	for i, row := range run.Grid {
		records[i] = row
	}
	return w.write(records)
}

// WriteSummary outputs a header record and one record per run.
func (w *CSVWriter) WriteSummary(runs []*model.Run) (int, error) {
	records := make([][]string, 0, len(runs)+1)
	records = append(records, []string{"job", "strategy", "tab", "state", "rows", "columns", "range", "duration_ms", "error"})
	for _, run := range runs {
		records = append(records, []string{
			run.Job,
			run.Strategy,
			run.Tab,
			run.State.String(),
			strconv.Itoa(run.Rows),
			strconv.Itoa(run.Columns),
			run.Range,
			strconv.FormatInt(run.Duration().Milliseconds(), 10),
			run.ErrorMessage,
		})
	}
	return w.write(records)
}

func (w *CSVWriter) write(records [][]string) (int, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Comma = w.comma
	if err := cw.WriteAll(records); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}
