package model

import (
	"time"

	"github.com/google/uuid"
)

// IssueKind classifies a detected problem.
type IssueKind string

const (
	// KindBrokenLink is a hyperlink or page that could not be fetched successfully.
	KindBrokenLink IssueKind = "BROKEN_LINK"

	// KindBrokenImage is an embedded image that failed to load.
	KindBrokenImage IssueKind = "BROKEN_IMAGE"

	// KindMissingAsset is reserved for non-image assets such as scripts and stylesheets.
	KindMissingAsset IssueKind = "MISSING_ASSET"
)

// EntryPoint is the referring page recorded when a crawled page itself fails.
const EntryPoint = "Entry Point"

// StatusNetworkFailure is the status code recorded when no HTTP response was
// received (DNS failure, refused connection, timeout, TLS error).
const StatusNetworkFailure = 0

// IsBrokenStatus reports whether an HTTP status code denotes a broken resource.
func IsBrokenStatus(code int) bool {
	return code == StatusNetworkFailure || code >= 400
}

// Issue is one broken resource detected during a scan.
type Issue struct {
	// ID is the UUID primary key of the issue.
	ID string

	// ScanID references the scan that detected the issue.
	ScanID string

	// Kind classifies the issue.
	Kind IssueKind

	// URL is the broken resource.
	URL string

	// PageURL is the page that referenced the resource, or EntryPoint.
	PageURL string

	// StatusCode is the HTTP status observed, or StatusNetworkFailure.
	StatusCode int

	// DetectedAt is set when the issue is persisted.
	DetectedAt time.Time
}

// IssueKey identifies an issue for deduplication within one scan.
type IssueKey struct {
	URL     string
	PageURL string
}

// Key returns the deduplication key of the issue.
func (i Issue) Key() IssueKey {
	return IssueKey{URL: i.URL, PageURL: i.PageURL}
}

// NewID returns a fresh random identifier for a site, scan or issue.
func NewID() string {
	return uuid.NewString()
}
