// Package dispatch runs scans in the background.
//
// A Dispatcher accepts fire-and-forget scan requests: Submit returns at once,
// the scan runs on a bounded pool, and its outcome is only visible through
// the persisted scan and site state (or an optional completion callback).
//
// Design decision: Two requests for the same site never crawl concurrently.
// A request that arrives while the site is being scanned joins the running
// scan instead of starting a second one.
package dispatch
