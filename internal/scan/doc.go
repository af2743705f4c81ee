// Package scan runs one crawl of a site and records its lifecycle.
//
// A Controller owns a fresh Frontier, Validator and Aggregator per Run, so
// concurrent runs against different sites share nothing but the Gateway.
//
// Lifecycle:
//
//	PENDING ──CreateScan──► PROCESSING ──frontier drained──► COMPLETED
//	                             │
//	                             └──engine failure──► FAILED
//
// Individual page or resource failures are recorded as issues and never fail
// the scan. Only problems with the crawl itself (no renderer session, a
// canceled context, a panic in the loop) move the scan to FAILED and the site
// to ERROR.
package scan
