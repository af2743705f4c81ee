package model

import "time"

// ScanStatus is the lifecycle state of a scan.
//
// Transitions are monotonic: PENDING -> PROCESSING -> {COMPLETED, FAILED}.
// COMPLETED and FAILED are terminal.
type ScanStatus string

const (
	// ScanPending is the initial state before the crawl starts.
	ScanPending ScanStatus = "PENDING"

	// ScanProcessing is set while the crawl is running.
	ScanProcessing ScanStatus = "PROCESSING"

	// ScanCompleted is set when the crawl finished and its issues were persisted.
	ScanCompleted ScanStatus = "COMPLETED"

	// ScanFailed is set when the crawl aborted with an engine failure.
	ScanFailed ScanStatus = "FAILED"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s ScanStatus) IsTerminal() bool {
	return s == ScanCompleted || s == ScanFailed
}

// CanTransition reports whether moving from s to next respects the lifecycle.
func (s ScanStatus) CanTransition(next ScanStatus) bool {
	switch s {
	case ScanPending:
		return next == ScanProcessing || next == ScanFailed
	case ScanProcessing:
		return next == ScanCompleted || next == ScanFailed
	default:
		return false
	}
}

// Scan is a single crawl-and-validate run over one site.
type Scan struct {
	// ID is the UUID primary key of the scan.
	ID string

	// SiteID references the scanned site.
	SiteID string

	// Status is the lifecycle state.
	Status ScanStatus

	// StartedAt is set when the scan is created.
	StartedAt time.Time

	// CompletedAt is set when the scan reaches a terminal state.
	CompletedAt *time.Time
}

// Duration returns how long the scan ran, or zero if it has not finished.
func (s *Scan) Duration() time.Duration {
	if s.CompletedAt == nil {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt)
}
