// Package render loads pages and extracts their outbound links and images.
//
// Two providers are available:
//   - Browser drives headless Chromium through Playwright, waits for
//     DOMContentLoaded plus a settle delay, and reports whether each image
//     actually materialized (natural width > 0)
//   - Static fetches raw HTML over net/http and parses it with
//     golang.org/x/net/html; scripts are not executed and every image
//     is reported as not loaded so the caller confirms it
//
// A Provider opens one Renderer session per scan. Sessions carry the site's
// User-Agent, cookie and headers and must be closed when the scan ends.
package render
