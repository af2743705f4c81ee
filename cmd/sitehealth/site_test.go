package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/sitehealth/internal/database"
	"github.com/nao1215/sitehealth/internal/model"
)

// newTestSite serves a small site: the root links to a working page, a
// missing page and a missing image.
func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body>
<a href="/ok">ok</a>
<a href="/missing">missing</a>
<img src="/img/gone.png">
</body></html>`))
	})
	mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><a href="/">home</a></body></html>`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// openTestDB opens the database in dir for seeding. Close it before running
// a command against the same directory.
func openTestDB(t *testing.T, dir string) *database.SiteDB {
	t.Helper()

	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	return db
}

// seedCompletedScan records a finished scan with issues for siteID.
func seedCompletedScan(t *testing.T, db *database.SiteDB, siteID string, issues ...model.Issue) *model.Scan {
	t.Helper()
	ctx := context.Background()

	scan, err := db.CreateScan(ctx, siteID)
	if err != nil {
		t.Fatalf("CreateScan: %v", err)
	}
	if err := db.InsertIssues(ctx, scan.ID, issues); err != nil {
		t.Fatalf("InsertIssues: %v", err)
	}
	now := time.Now()
	if err := db.UpdateScanStatus(ctx, scan.ID, model.ScanCompleted, &now); err != nil {
		t.Fatalf("UpdateScanStatus: %v", err)
	}
	if err := db.UpdateSiteStatus(ctx, siteID, model.SiteCompleted, &now); err != nil {
		t.Fatalf("UpdateSiteStatus: %v", err)
	}
	return scan
}

func TestSiteCmd(t *testing.T) {
	t.Parallel()

	t.Run("add without scan then list", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		out, err := executeCommand(t, "site", "add", "--data-dir", dir, "--no-scan", "https://www.example.com")
		if err != nil {
			t.Fatalf("site add: %v", err)
		}
		if !strings.Contains(out, "Registered site") {
			t.Errorf("expected registration notice, got %q", out)
		}
		if strings.Contains(out, "Initial scan started") {
			t.Errorf("expected no scan with --no-scan, got %q", out)
		}

		out, err = executeCommand(t, "site", "list", "--data-dir", dir)
		if err != nil {
			t.Fatalf("site list: %v", err)
		}
		for _, want := range []string{"https://www.example.com", string(model.SiteIdle), "never"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected list to contain %q, got %q", want, out)
			}
		}
	})

	t.Run("list without sites", func(t *testing.T) {
		t.Parallel()
		out, err := executeCommand(t, "site", "list", "--data-dir", t.TempDir())
		if err != nil {
			t.Fatalf("site list: %v", err)
		}
		if !strings.Contains(out, "No sites registered") {
			t.Errorf("expected empty notice, got %q", out)
		}
	})

	t.Run("rejects duplicate site", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		if _, err := executeCommand(t, "site", "add", "--data-dir", dir, "--no-scan", "https://www.example.com"); err != nil {
			t.Fatalf("first add: %v", err)
		}
		_, err := executeCommand(t, "site", "add", "--data-dir", dir, "--no-scan", "https://www.example.com")
		if !errors.Is(err, database.ErrSiteExists) {
			t.Errorf("expected ErrSiteExists, got %v", err)
		}
	})

	t.Run("rejects invalid url", func(t *testing.T) {
		t.Parallel()
		for _, raw := range []string{"ftp://example.com", "example.com", "https://"} {
			_, err := executeCommand(t, "site", "add", "--data-dir", t.TempDir(), "--no-scan", raw)
			if !errors.Is(err, database.ErrInvalidURL) {
				t.Errorf("%q: expected ErrInvalidURL, got %v", raw, err)
			}
		}
	})
}

func TestSiteAddRunsInitialScan(t *testing.T) {
	srv := newTestSite(t)
	dir := t.TempDir()

	out, err := executeCommand(t, "site", "add", "--data-dir", dir, "-r", "static", srv.URL)
	if err != nil {
		t.Fatalf("site add: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Initial scan started") {
		t.Errorf("expected scan notice, got %q", out)
	}
	if !strings.Contains(out, string(model.ScanCompleted)+": 2 issue(s)") {
		t.Errorf("expected completed scan with 2 issues, got %q", out)
	}

	db := openTestDB(t, dir)
	defer db.Close()

	site, err := db.FindSiteByURL(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FindSiteByURL: %v", err)
	}
	if site.Status != model.SiteCompleted || site.LastScanAt == nil {
		t.Errorf("expected COMPLETED site with last scan time, got %s %v", site.Status, site.LastScanAt)
	}
}
