// Package sink writes normalized grids into tabular stores.
//
// Every store implements the same idempotent operation: make sure the tab
// exists, optionally clear it, then write the grid anchored at A1. Other
// tabs of the store are never read or written. Running the same write
// twice leaves the store in the same state.
//
// Three stores are available:
//   - Sheets: a Google Sheets spreadsheet, authenticated with a service account
//   - XLSX: a local Excel workbook
//   - SQLite: a local cell store (see internal/database)
package sink
