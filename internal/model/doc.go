// Package model defines the core data structures used throughout sitehealth.
//
// This package contains the following main types:
//   - Site: A monitored website identified by its seed URL
//   - Scan: One crawl-and-validate run over a site
//   - Issue: A broken link, broken image or missing asset found during a scan
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The crawler, scan controller, database and report packages all
// exchange these types, so centralizing them prevents import cycles.
package model
