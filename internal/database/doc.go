// Package database provides the SQLite cell store behind the sqlite sink.
//
// The store mirrors a spreadsheet: named tabs holding cells addressed by
// row and column. It keeps only the current contents of each tab; a write
// replaces cells in place and nothing is versioned.
//
// Design decision: We use SQLite (via modernc.org/sqlite) because:
// 1. The database is a single file next to the other fiisheet data
// 2. The CGO-free driver keeps cross-compilation simple
// 3. A write is one transaction, so a failed run leaves the previous
//    contents intact
package database
