package main

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitehealth/internal/database"
	"github.com/nao1215/sitehealth/internal/report"
)

// errNoIssues is returned when the latest scan of a site recorded nothing to export.
var errNoIssues = errors.New("no issues found in the latest scan")

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <site-id|url>",
		Short: "Export the issues of a site's latest scan",
		Long: `Export writes the issues found by the most recent scan of a site.

The CSV format has the columns Type, Broken URL, Found On Page, Status Code
and Detected At. Status code 0 means the resource could not be reached at all
(timeout, DNS or connection failure). "Entry Point" in the Found On Page
column means the page itself failed to load.

Examples:
  # Print CSV to stdout
  sitehealth export https://www.example.com

  # Write a Markdown report to a file
  sitehealth export --format markdown -o report.md 2f1c3a7e-...

  # Write CSV into a directory with a generated file name
  sitehealth export -o reports/ https://www.example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runExportCmd,
	}

	cmd.Flags().StringP("format", "f", report.FormatCSV,
		"Output format: csv, markdown, table or json")
	cmd.Flags().StringP("output", "o", "",
		"Write to this file, or into this directory when it ends with a separator (default: stdout)")

	return cmd
}

// runExportCmd executes the export command.
func runExportCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	site, err := resolveSite(ctx, db, args[0])
	if err != nil {
		return err
	}

	scan, err := db.LatestScan(ctx, site.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("site %s has not been scanned yet", site.URL)
		}
		return err
	}

	issues, err := db.ListIssues(ctx, scan.ID)
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		return fmt.Errorf("%w of %s (scan %s, %s)", errNoIssues, site.URL, scan.ID, scan.Status)
	}

	var (
		out  io.Writer = cmd.OutOrStdout()
		path string
	)
	if outputPath != "" {
		path = exportPath(outputPath, site.URL, format, time.Now())
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		f, err := os.Create(path) //nolint:gosec // User-provided output path is intentional
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	writer, err := report.NewWriter(format, out)
	if err != nil {
		return err
	}
	if err := writer.Write(&report.Report{Site: site, Scan: scan, Issues: issues}); err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d issue(s) to %s\n", len(issues), path)
	}
	return nil
}

// exportPath resolves the output flag. A path ending with a separator or
// naming an existing directory gets a generated file name.
func exportPath(output, siteURL, format string, now time.Time) string {
	isDir := strings.HasSuffix(output, "/") || strings.HasSuffix(output, string(os.PathSeparator))
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		isDir = true
	}
	if !isDir {
		return output
	}

	host := siteURL
	if u, err := url.Parse(siteURL); err == nil && u.Host != "" {
		host = u.Host
	}
	name := report.ExportFileName(host, now)
	if ext := formatExtension(format); ext != ".csv" {
		name = strings.TrimSuffix(name, ".csv") + ext
	}
	return filepath.Join(output, name)
}

func formatExtension(format string) string {
	switch strings.ToLower(format) {
	case report.FormatMarkdown, "md":
		return ".md"
	case report.FormatJSON:
		return ".json"
	case report.FormatTable:
		return ".txt"
	default:
		return ".csv"
	}
}
