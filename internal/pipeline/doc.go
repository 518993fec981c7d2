// Package pipeline runs one job from acquisition to the sink write.
//
// A job run is a fixed sequence of steps (acquire, header, normalize,
// write) applied to a model.Run. Each step records its state transition on
// the run; the first failing step ends it. An acquisition that yields no
// table or no rows ends in the empty state and never reaches the write
// step.
//
// Design decision: We keep the step interface from the scan pipeline
// shape so that:
// 1. Each step carries its own collaborators (strategy, sink)
// 2. Logging and error recording happen in one place
// 3. Cancellation is checked between steps
//
// Several jobs can run concurrently through BatchProcessor, which uses
// errgroup with a concurrency limit. Each job is still strictly sequential.
package pipeline
