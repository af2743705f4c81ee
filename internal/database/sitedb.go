package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitehealth/internal/model"
)

// DBFileName is the name of the database file inside the data directory.
const DBFileName = "sitehealth.db"

// timestampLayout is fixed-width so stored timestamps sort lexicographically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SiteDB provides SQLite-based storage for sites, scans and issues.
type SiteDB struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// Options configures SiteDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a SiteDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*SiteDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	mode := "rwc"
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
		mode = "rw"
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?mode=" + mode + "&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; concurrent scans queue on this connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &SiteDB{db: db, dbPath: dbPath, now: time.Now}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return sdb, nil
}

// Path returns the database file path.
func (sdb *SiteDB) Path() string {
	return sdb.dbPath
}

// Close closes the database connection.
func (sdb *SiteDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *SiteDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sites (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'IDLE',
		last_scan_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sites_last_scan ON sites(last_scan_at);

	CREATE TABLE IF NOT EXISTS scans (
		id TEXT PRIMARY KEY,
		site_id TEXT NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
		status TEXT NOT NULL,
		started_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_scans_site ON scans(site_id, started_at);

	-- Issues are written once when a scan completes.
	-- The fingerprint makes re-inserting the same batch a no-op.
	CREATE TABLE IF NOT EXISTS issues (
		id TEXT PRIMARY KEY,
		scan_id TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		url TEXT NOT NULL,
		page_url TEXT NOT NULL,
		status_code INTEGER NOT NULL,
		detected_at TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		UNIQUE(scan_id, fingerprint)
	);

	CREATE INDEX IF NOT EXISTS idx_issues_scan ON issues(scan_id);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// CreateSite registers a new site with status IDLE.
func (sdb *SiteDB) CreateSite(ctx context.Context, rawURL string) (*model.Site, error) {
	siteURL, err := NormalizeSiteURL(rawURL)
	if err != nil {
		return nil, err
	}

	if _, err := sdb.FindSiteByURL(ctx, siteURL); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrSiteExists, siteURL)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	site := &model.Site{
		ID:        model.NewID(),
		URL:       siteURL,
		Status:    model.SiteIdle,
		CreatedAt: sdb.now().UTC(),
	}

	query := `INSERT INTO sites (id, url, status, created_at) VALUES (?, ?, ?, ?)`
	if _, err := sdb.db.ExecContext(ctx, query, site.ID, site.URL, string(site.Status), formatTimestamp(site.CreatedAt)); err != nil {
		return nil, fmt.Errorf("failed to create site: %w", err)
	}
	return site, nil
}

// NormalizeSiteURL validates a site URL and trims surrounding whitespace.
func NormalizeSiteURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return u.String(), nil
}

const siteColumns = `id, url, status, last_scan_at, created_at`

// GetSite returns the site with the given ID.
func (sdb *SiteDB) GetSite(ctx context.Context, id string) (*model.Site, error) {
	row := sdb.db.QueryRowContext(ctx, `SELECT `+siteColumns+` FROM sites WHERE id = ?`, id)
	site, err := scanSite(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get site %s: %w", id, err)
	}
	return site, nil
}

// FindSiteByURL returns the site registered for rawURL.
func (sdb *SiteDB) FindSiteByURL(ctx context.Context, rawURL string) (*model.Site, error) {
	row := sdb.db.QueryRowContext(ctx, `SELECT `+siteColumns+` FROM sites WHERE url = ?`, strings.TrimSpace(rawURL))
	site, err := scanSite(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find site %s: %w", rawURL, err)
	}
	return site, nil
}

// ListSites returns all sites in registration order.
func (sdb *SiteDB) ListSites(ctx context.Context) ([]*model.Site, error) {
	return sdb.querySites(ctx, `SELECT `+siteColumns+` FROM sites ORDER BY created_at ASC, id ASC`)
}

// ListDueSites returns all sites ordered for fair scheduling: never-scanned
// sites first, then the least recently scanned.
func (sdb *SiteDB) ListDueSites(ctx context.Context) ([]*model.Site, error) {
	return sdb.querySites(ctx, `SELECT `+siteColumns+` FROM sites
	ORDER BY last_scan_at ASC NULLS FIRST, created_at ASC, id ASC`)
}

func (sdb *SiteDB) querySites(ctx context.Context, query string) ([]*model.Site, error) {
	rows, err := sdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []*model.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSite(row rowScanner) (*model.Site, error) {
	var (
		site       model.Site
		status     string
		lastScanAt sql.NullString
		createdAt  string
	)
	if err := row.Scan(&site.ID, &site.URL, &status, &lastScanAt, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	site.Status = model.SiteStatus(status)
	site.CreatedAt = parseTimestamp(createdAt)
	site.LastScanAt = parseNullTimestamp(lastScanAt)
	return &site, nil
}

// UpdateSiteStatus sets the site status. A nil lastScanAt keeps the stored value.
func (sdb *SiteDB) UpdateSiteStatus(ctx context.Context, siteID string, status model.SiteStatus, lastScanAt *time.Time) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	query := `UPDATE sites SET status = ?, last_scan_at = COALESCE(?, last_scan_at) WHERE id = ?`
	result, err := sdb.db.ExecContext(ctx, query, string(status), nullTimestamp(lastScanAt), siteID)
	if err != nil {
		return fmt.Errorf("failed to update site status: %w", err)
	}
	return requireAffected(result, "site", siteID)
}

// CreateScan records a new scan for siteID in PROCESSING state.
func (sdb *SiteDB) CreateScan(ctx context.Context, siteID string) (*model.Scan, error) {
	scan := &model.Scan{
		ID:        model.NewID(),
		SiteID:    siteID,
		Status:    model.ScanProcessing,
		StartedAt: sdb.now().UTC(),
	}

	query := `INSERT INTO scans (id, site_id, status, started_at) VALUES (?, ?, ?, ?)`
	if _, err := sdb.db.ExecContext(ctx, query, scan.ID, scan.SiteID, string(scan.Status), formatTimestamp(scan.StartedAt)); err != nil {
		return nil, fmt.Errorf("failed to create scan for site %s: %w", siteID, err)
	}
	return scan, nil
}

// UpdateScanStatus moves a scan to status.
// Re-applying the current status is a no-op; leaving a terminal status
// returns ErrInvalidTransition.
func (sdb *SiteDB) UpdateScanStatus(ctx context.Context, scanID string, status model.ScanStatus, completedAt *time.Time) error {
	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current string
	if err := tx.QueryRowContext(ctx, `SELECT status FROM scans WHERE id = ?`, scanID).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("scan %s: %w", scanID, ErrNotFound)
		}
		return fmt.Errorf("failed to read scan status: %w", err)
	}

	from := model.ScanStatus(current)
	if from == status {
		return nil
	}
	if !from.CanTransition(status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, status)
	}

	query := `UPDATE scans SET status = ?, completed_at = COALESCE(?, completed_at) WHERE id = ?`
	if _, err := tx.ExecContext(ctx, query, string(status), nullTimestamp(completedAt), scanID); err != nil {
		return fmt.Errorf("failed to update scan status: %w", err)
	}
	return tx.Commit()
}

const scanColumns = `id, site_id, status, started_at, completed_at`

// GetScan returns the scan with the given ID.
func (sdb *SiteDB) GetScan(ctx context.Context, id string) (*model.Scan, error) {
	row := sdb.db.QueryRowContext(ctx, `SELECT `+scanColumns+` FROM scans WHERE id = ?`, id)
	scan, err := scanScan(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan %s: %w", id, err)
	}
	return scan, nil
}

// LatestScan returns the most recently started scan of a site.
// When statuses are given, only scans in one of them are considered.
func (sdb *SiteDB) LatestScan(ctx context.Context, siteID string, statuses ...model.ScanStatus) (*model.Scan, error) {
	scans, err := sdb.ListScans(ctx, siteID, 1, statuses...)
	if err != nil {
		return nil, err
	}
	if len(scans) == 0 {
		return nil, fmt.Errorf("no scan for site %s: %w", siteID, ErrNotFound)
	}
	return scans[0], nil
}

// ListScans returns up to limit scans of a site, newest first.
// A limit of zero or less returns all scans.
func (sdb *SiteDB) ListScans(ctx context.Context, siteID string, limit int, statuses ...model.ScanStatus) ([]*model.Scan, error) {
	query := `SELECT ` + scanColumns + ` FROM scans WHERE site_id = ?`
	args := []any{siteID}
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, s := range statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		query += ` AND status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY started_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := sdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var scans []*model.Scan
	for rows.Next() {
		scan, err := scanScan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scan row: %w", err)
		}
		scans = append(scans, scan)
	}
	return scans, rows.Err()
}

func scanScan(row rowScanner) (*model.Scan, error) {
	var (
		scan        model.Scan
		status      string
		startedAt   string
		completedAt sql.NullString
	)
	if err := row.Scan(&scan.ID, &scan.SiteID, &status, &startedAt, &completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	scan.Status = model.ScanStatus(status)
	scan.StartedAt = parseTimestamp(startedAt)
	scan.CompletedAt = parseNullTimestamp(completedAt)
	return &scan, nil
}

// InsertIssues stores the issues of a scan in one transaction.
// Missing IDs and detection times are filled in. Issues already stored for
// the scan (same kind, URL and page) are skipped, so a retried call is safe.
func (sdb *SiteDB) InsertIssues(ctx context.Context, scanID string, issues []model.Issue) error {
	if len(issues) == 0 {
		return nil
	}

	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR IGNORE INTO issues (id, scan_id, type, url, page_url, status_code, detected_at, fingerprint)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare issue insert: %w", err)
	}
	defer stmt.Close()

	now := sdb.now().UTC()
	for _, issue := range issues {
		if issue.ID == "" {
			issue.ID = model.NewID()
		}
		if issue.DetectedAt.IsZero() {
			issue.DetectedAt = now
		}
		if _, err := stmt.ExecContext(ctx,
			issue.ID, scanID, string(issue.Kind), issue.URL, issue.PageURL,
			issue.StatusCode, formatTimestamp(issue.DetectedAt), Fingerprint(issue),
		); err != nil {
			return fmt.Errorf("failed to insert issue %s: %w", issue.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit issues: %w", err)
	}
	return nil
}

// ListIssues returns the issues of a scan in discovery order.
func (sdb *SiteDB) ListIssues(ctx context.Context, scanID string) ([]model.Issue, error) {
	query := `
	SELECT id, scan_id, type, url, page_url, status_code, detected_at
	FROM issues
	WHERE scan_id = ?
	ORDER BY rowid ASC
	`

	rows, err := sdb.db.QueryContext(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	var issues []model.Issue
	for rows.Next() {
		var (
			issue      model.Issue
			kind       string
			detectedAt string
		)
		if err := rows.Scan(&issue.ID, &issue.ScanID, &kind, &issue.URL, &issue.PageURL, &issue.StatusCode, &detectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issue.Kind = model.IssueKind(kind)
		issue.DetectedAt = parseTimestamp(detectedAt)
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// Fingerprint returns a stable identifier of an issue within its scan.
func Fingerprint(issue model.Issue) string {
	sum := sha3.Sum256([]byte(string(issue.Kind) + "\x00" + issue.URL + "\x00" + issue.PageURL))
	return hex.EncodeToString(sum[:16])
}

func requireAffected(result sql.Result, entity, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func nullTimestamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTimestamp(*t)
}

// timestampFormats lists the formats parseTimestamp accepts.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseNullTimestamp(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTimestamp(s.String)
	return &t
}
