package report

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/nao1215/fiisheet/internal/model"
)

// Output formats accepted by New.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatCSV      = "csv"
)

// ErrUnknownFormat is returned by New for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats returns the supported format names.
func Formats() []string {
	return []string{FormatText, FormatMarkdown, FormatJSON, FormatCSV}
}

// Writer defines the interface for report output.
type Writer interface {
	// WriteGrid outputs the normalized grid of a single run.
	// Returns the number of bytes written and any error encountered.
	WriteGrid(run *model.Run) (int, error)

	// WriteSummary outputs one line or record per run.
	WriteSummary(runs []*model.Run) (int, error)
}

// New returns the writer for format. The version is stamped on formats
// that carry metadata.
func New(format string, output io.Writer, version string) (Writer, error) {
	switch strings.ToLower(format) {
	case FormatText, "":
		return NewSimpleWriter(output), nil
	case FormatMarkdown, "md":
		return NewMarkdownWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint(), WithVersion(version)), nil
	case FormatCSV:
		return NewCSVWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// stateCounts counts runs per final state, in state order.
func stateCounts(runs []*model.Run) ([]model.State, map[model.State]int) {
	counts := make(map[model.State]int)
	for _, run := range runs {
		counts[run.State]++
	}
	states := make([]model.State, 0, len(counts))
	for s := range counts {
		states = append(states, s)
	}
	slices.Sort(states)
	return states, counts
}

// totalRows sums the rows of the runs that reached done.
func totalRows(runs []*model.Run) int {
	total := 0
	for _, run := range runs {
		if run.Succeeded() {
			total += run.Rows
		}
	}
	return total
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
