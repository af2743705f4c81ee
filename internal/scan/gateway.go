package scan

import (
	"context"
	"time"

	"github.com/nao1215/sitehealth/internal/model"
)

// Gateway persists scan results. It is implemented by database.SiteDB.
type Gateway interface {
	// CreateScan records a new scan for siteID in PROCESSING state.
	CreateScan(ctx context.Context, siteID string) (*model.Scan, error)

	// InsertIssues stores the final issues of a scan.
	InsertIssues(ctx context.Context, scanID string, issues []model.Issue) error

	// UpdateScanStatus moves a scan to a new status.
	UpdateScanStatus(ctx context.Context, scanID string, status model.ScanStatus, completedAt *time.Time) error

	// UpdateSiteStatus sets a site's status and, when non-nil, its last scan time.
	UpdateSiteStatus(ctx context.Context, siteID string, status model.SiteStatus, lastScanAt *time.Time) error
}
