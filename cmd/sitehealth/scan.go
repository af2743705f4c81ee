package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitehealth/internal/database"
	"github.com/nao1215/sitehealth/internal/model"
	"github.com/nao1215/sitehealth/internal/report"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <site-id|url>",
		Short: "Scan one site for broken links and images",
		Long: `Scan crawls one site and records every broken link and image.

The site can be given by ID or by URL. A URL that is not registered yet is
registered first. The crawl starts at the site's root URL and follows links
on the same host breadth-first, up to --depth links away and at most
--max-pages pages. Every link and image found is checked, including links to
other hosts, but only pages on the site itself are rendered.

Examples:
  # Scan a registered site by ID
  sitehealth scan 2f1c3a7e-...

  # Scan (and register) a URL with the static renderer
  sitehealth scan --renderer static https://www.example.com

  # Crawl deeper and print a Markdown report
  sitehealth scan -d 5 -p 200 --format markdown https://www.example.com

Configuration file (.sitehealth) example:
  sites:
    www.example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      depth: 5`,
		Args: cobra.ExactArgs(1),
		RunE: runScanCmd,
	}

	addCrawlFlags(cmd)
	cmd.Flags().StringP("format", "f", report.FormatTable,
		"Result format: table, markdown, json or csv")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	writer, err := report.NewWriter(format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, stop := signalContext()
	defer stop()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	site, err := resolveOrRegister(ctx, cmd.ErrOrStderr(), db, args[0])
	if err != nil {
		return err
	}

	eng := newEngine(cmd, cfg, db, logger)
	defer eng.Close()

	logger.Info("starting scan", "site", site.ID, "url", site.URL, "renderer", cfg.Renderer)

	scan, runErr := eng.controller.Run(ctx, site.ID, site.URL)
	if scan == nil {
		return runErr
	}

	if err := writeScanReport(ctx, writer, db, site, scan); err != nil {
		return err
	}

	if runErr != nil {
		return fmt.Errorf("scan %s failed: %w", scan.ID, runErr)
	}
	return nil
}

// writeScanReport reads back the issues of a finished scan and writes them.
// The read ignores cancellation so an interrupted scan still gets its FAILED report.
func writeScanReport(ctx context.Context, writer report.Writer, db *database.SiteDB, site *model.Site, scan *model.Scan) error {
	issues, err := db.ListIssues(context.WithoutCancel(ctx), scan.ID)
	if err != nil {
		return err
	}
	return writer.Write(&report.Report{Site: site, Scan: scan, Issues: issues})
}

// resolveOrRegister finds a site by ID or URL and registers ref when it is a
// URL that is not monitored yet.
func resolveOrRegister(ctx context.Context, notice io.Writer, db *database.SiteDB, ref string) (*model.Site, error) {
	site, err := resolveSite(ctx, db, ref)
	if err == nil {
		return site, nil
	}

	siteURL, urlErr := database.NormalizeSiteURL(ref)
	if urlErr != nil {
		return nil, err
	}

	if existing, findErr := db.FindSiteByURL(ctx, siteURL); findErr == nil {
		return existing, nil
	} else if !errors.Is(findErr, database.ErrNotFound) {
		return nil, findErr
	}

	site, err = db.CreateSite(ctx, siteURL)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(notice, "Registered site %s (%s)\n", site.ID, site.URL)
	return site, nil
}
