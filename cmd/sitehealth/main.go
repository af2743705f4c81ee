// Package main provides the entry point for the sitehealth CLI.
//
// sitehealth monitors websites for broken links and images. It crawls each
// registered site breadth-first, validates every link and image it finds,
// and stores the results of each scan in a local SQLite database.
//
// Usage:
//
//	sitehealth site add <url>
//	sitehealth scan <site-id|url>
//	sitehealth schedule
//	sitehealth export <site-id|url> --format csv
//
// See --help for all available options.
package main

// main is the entry point for sitehealth.
func main() {
	Execute()
}
