// Package model defines the data structures shared by the pipeline, the
// sinks and the report writers.
//
// The main type is Run, the record of one job execution: which job and tab
// it targeted, which State it reached, the Grid it produced and the error it
// ended with. A Run is created by the pipeline, threaded through every step
// and handed to the report writers at the end.
//
// Design decision: We keep these types in their own package so that
// pipeline, report and the CLI can share them without import cycles.
package model
