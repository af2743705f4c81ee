// Package database provides SQLite-based storage for sitehealth.
//
// SiteDB stores three tables:
//   - sites: monitored websites and their latest monitoring status
//   - scans: one row per crawl, with a monotonic lifecycle status
//   - issues: the deduplicated broken resources of a finished scan
//
// SiteDB implements the persistence gateway consumed by the scan controller
// and the queries used by the CLI (registration, scheduling, export).
//
// Design decision: We use SQLite (via modernc.org/sqlite) because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. WAL mode lets the scheduler read while scans write
package database
