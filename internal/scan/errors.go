package scan

import "errors"

var (
	// ErrEngine marks a failure of the crawl itself. The scan is marked FAILED.
	ErrEngine = errors.New("scan engine failure")

	// ErrCreateScan is returned when the scan record could not be created.
	// Nothing is persisted for such a run.
	ErrCreateScan = errors.New("failed to create scan record")
)
