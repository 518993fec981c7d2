// Package grid provides the rectangular text grid that flows between the
// acquisition strategies and the spreadsheet sinks.
//
// A Grid is an ordered list of rows, conventionally a header row followed by
// data rows. The package offers three operations on it:
//
//   - ParseTable turns one raw HTML table fragment into a Grid
//   - Normalize right-pads rows so every row has the same width
//   - A1 range helpers used by the sinks to address a tab anchored at A1
//
// None of these functions return errors. Absence of data is an empty Grid,
// and deciding whether emptiness is fatal belongs to the caller.
package grid
