// Package report renders acquired grids and run summaries.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - MarkdownWriter: Markdown tables for sharing a preview or a run log
//   - JSONWriter: Structured JSON output for tool integration
//   - CSVWriter: Comma separated rows for spreadsheet import
//
// Design decision: We separate rendering from the run record (which is in
// the model package) so that new output formats can be added without
// modifying the pipeline.
//
// Writers implement the Writer interface and are chosen with New.
package report
