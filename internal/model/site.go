package model

import "time"

// SiteStatus is the monitoring state of a site.
type SiteStatus string

const (
	// SiteIdle is the status of a freshly registered site that has never been scanned.
	SiteIdle SiteStatus = "IDLE"

	// SiteProcessing is set while a scan of the site is running.
	SiteProcessing SiteStatus = "PROCESSING"

	// SiteCompleted is set when the latest scan finished normally.
	SiteCompleted SiteStatus = "COMPLETED"

	// SiteError is set when the latest scan aborted with an engine failure.
	SiteError SiteStatus = "ERROR"
)

// Valid reports whether s is one of the known site statuses.
func (s SiteStatus) Valid() bool {
	switch s {
	case SiteIdle, SiteProcessing, SiteCompleted, SiteError:
		return true
	default:
		return false
	}
}

// Site is a website registered for monitoring.
type Site struct {
	// ID is the UUID primary key of the site.
	ID string

	// URL is the seed URL the crawl starts from.
	URL string

	// Status reflects the outcome of the most recent scan.
	Status SiteStatus

	// LastScanAt is the completion time of the last successful scan.
	// Nil means the site has never been scanned successfully.
	LastScanAt *time.Time

	// CreatedAt is when the site was registered.
	CreatedAt time.Time
}
