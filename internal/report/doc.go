// Package report renders scan results.
//
// This package contains writers for different output formats:
//   - CSVWriter: the export format (Type, Broken URL, Found On Page, Status Code, Detected At)
//   - MarkdownWriter: a shareable summary with per-kind sections
//   - TableWriter: aligned text for terminal display
//   - JSONWriter: structured output for tool integration
//
// Design decision: We separate report writing from the data (which lives in
// the model package) so output formats can be added without touching the
// crawl engine.
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
