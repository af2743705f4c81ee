package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/sitehealth/internal/dispatch"
	"github.com/nao1215/sitehealth/internal/model"
	"github.com/nao1215/sitehealth/internal/report"
)

type scanOutput struct {
	Status model.ScanStatus `json:"status"`
	Issues []struct {
		Type       model.IssueKind `json:"type"`
		URL        string          `json:"url"`
		PageURL    string          `json:"page_url"`
		StatusCode int             `json:"status_code"`
	} `json:"issues"`
}

// runScan executes the scan command with the static renderer and decodes its
// JSON report. Notices written to stderr are returned separately.
func runScan(t *testing.T, dir, ref string) (scanOutput, string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"scan", "--data-dir", dir, "-r", "static", "-f", report.FormatJSON, ref})

	err := cmd.Execute()

	var out scanOutput
	if stdout.Len() > 0 {
		if decErr := json.Unmarshal(stdout.Bytes(), &out); decErr != nil {
			t.Fatalf("failed to decode report: %v\n%s", decErr, stdout.String())
		}
	}
	return out, stderr.String(), err
}

// Scans share the process-wide default logger, so they do not run in parallel.
func TestRunScanCmd(t *testing.T) {
	t.Run("registers and scans a url", func(t *testing.T) {
		srv := newTestSite(t)
		dir := t.TempDir()

		out, notices, err := runScan(t, dir, srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(notices, "Registered site") {
			t.Errorf("expected registration notice, got %q", notices)
		}
		if out.Status != model.ScanCompleted {
			t.Errorf("expected COMPLETED, got %s", out.Status)
		}

		found := make(map[model.IssueKind]string)
		for _, issue := range out.Issues {
			found[issue.Type] = issue.URL
			if issue.StatusCode != 404 {
				t.Errorf("expected status 404 for %s, got %d", issue.URL, issue.StatusCode)
			}
		}
		if len(out.Issues) != 2 {
			t.Fatalf("expected 2 issues, got %+v", out.Issues)
		}
		if found[model.KindBrokenLink] != srv.URL+"/missing" {
			t.Errorf("unexpected broken link %q", found[model.KindBrokenLink])
		}
		if found[model.KindBrokenImage] != srv.URL+"/img/gone.png" {
			t.Errorf("unexpected broken image %q", found[model.KindBrokenImage])
		}

		// A second scan by URL reuses the registered site.
		_, notices, err = runScan(t, dir, srv.URL)
		if err != nil {
			t.Fatalf("second scan: %v", err)
		}
		if strings.Contains(notices, "Registered site") {
			t.Errorf("expected existing site to be reused, got %q", notices)
		}
	})

	t.Run("unreachable site is an entry point issue", func(t *testing.T) {
		srv := httptest.NewServer(nil)
		siteURL := srv.URL
		srv.Close()

		out, _, err := runScan(t, t.TempDir(), siteURL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Status != model.ScanCompleted {
			t.Errorf("expected COMPLETED, got %s", out.Status)
		}
		if len(out.Issues) != 1 {
			t.Fatalf("expected 1 issue, got %+v", out.Issues)
		}
		issue := out.Issues[0]
		if issue.Type != model.KindBrokenLink || issue.PageURL != model.EntryPoint || issue.StatusCode != model.StatusNetworkFailure {
			t.Errorf("unexpected issue %+v", issue)
		}
	})

	t.Run("unknown site id", func(t *testing.T) {
		_, _, err := runScan(t, t.TempDir(), "no-such-site")
		if err == nil || !strings.Contains(err.Error(), "site not found") {
			t.Errorf("expected site not found error, got %v", err)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := executeCommand(t, "scan", "--data-dir", t.TempDir(), "-f", "xml", "https://www.example.com")
		if !errors.Is(err, report.ErrUnknownFormat) {
			t.Errorf("expected ErrUnknownFormat, got %v", err)
		}
	})
}

func TestWriteScanReportAfterInterrupt(t *testing.T) {
	t.Parallel()

	db := openTestDB(t, t.TempDir())
	t.Cleanup(func() { _ = db.Close() })

	bg := context.Background()
	site, err := db.CreateSite(bg, "https://www.example.com")
	if err != nil {
		t.Fatalf("CreateSite: %v", err)
	}
	scan, err := db.CreateScan(bg, site.ID)
	if err != nil {
		t.Fatalf("CreateScan: %v", err)
	}
	now := time.Now()
	if err := db.UpdateScanStatus(bg, scan.ID, model.ScanFailed, &now); err != nil {
		t.Fatalf("UpdateScanStatus: %v", err)
	}
	scan.Status = model.ScanFailed

	ctx, cancel := context.WithCancel(bg)
	cancel()

	var buf bytes.Buffer
	if err := writeScanReport(ctx, report.NewJSONWriter(&buf), db, site, scan); err != nil {
		t.Fatalf("writeScanReport() error = %v", err)
	}
	var out scanOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if out.Status != model.ScanFailed {
		t.Errorf("expected FAILED report, got %s", out.Status)
	}

	buf.Reset()
	result := dispatch.Result{SiteID: site.ID, URL: site.URL, Scan: scan, Err: context.Canceled}
	if err := printScanOutcome(ctx, &buf, db, result); !errors.Is(err, context.Canceled) {
		t.Errorf("printScanOutcome() error = %v, want the scan error", err)
	}
	if !strings.Contains(buf.String(), string(model.ScanFailed)) {
		t.Errorf("expected FAILED summary, got %q", buf.String())
	}
}
