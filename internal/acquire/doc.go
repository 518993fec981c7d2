// Package acquire produces grids from remote sources.
//
// Every source is a Strategy with a single Acquire operation, so the
// pipeline stays independent of how the data is obtained.
//
// # Strategies
//
//   - DOMStrategy: renders the listing page in headless Chrome (chromedp),
//     dismisses banners, triggers the search, and parses the first table
//     with visible text.
//   - APIStrategy: pages through a JSON search endpoint (resty) and projects
//     every record onto a declared field list.
//   - StaticStrategy: fetches server-rendered HTML and parses its first
//     non-empty table (goquery).
//   - TickerStrategy: looks up one JSON object per ticker symbol.
//
// # Failure semantics
//
// Optional interaction steps (banner dismissal, search triggers, network
// settling, the table wait) never fail a run; they are logged at debug
// level. A missing table is ErrTableNotFound, carried in an EmptyError
// with a snippet of the page. Transport failures, non-success statuses and
// malformed JSON are returned as they are, without retries: a scheduled
// rerun is the retry mechanism.
//
// # Usage
//
//	strategy, err := acquire.New(job, acquire.WithLogger(logger))
//	g, err := strategy.Acquire(ctx)
package acquire
