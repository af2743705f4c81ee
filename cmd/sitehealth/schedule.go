package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/nao1215/sitehealth/internal/config"
	"github.com/nao1215/sitehealth/internal/dispatch"
	"github.com/nao1215/sitehealth/internal/model"
)

// NewScheduleCmd creates the schedule command.
func NewScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Scan every registered site",
		Long: `Schedule scans all registered sites, the ones never scanned first and
then the least recently scanned, so repeated runs rotate fairly.

Scans run concurrently (see --concurrency). A failing site never stops the
others; its scan is marked FAILED and the site ERROR. Run this command from
cron or a systemd timer for daily monitoring.

Examples:
  # Scan all sites, four at a time
  sitehealth schedule -n 4

  # Use the static renderer for every site
  sitehealth schedule --renderer static`,
		Args: cobra.NoArgs,
		RunE: runScheduleCmd,
	}

	addCrawlFlags(cmd)
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of sites scanned at the same time")

	return cmd
}

// runScheduleCmd executes the schedule command.
func runScheduleCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Concurrency, err = cmd.Flags().GetInt("concurrency"); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signalContext()
	defer stop()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	sites, err := db.ListDueSites(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(sites) == 0 {
		fmt.Fprintln(out, "No sites registered. Use 'sitehealth site add <url>' to add one.")
		return nil
	}

	eng := newEngine(cmd, cfg, db, logger)
	defer eng.Close()

	var (
		mu      sync.Mutex
		results = make(map[string]dispatch.Result, len(sites))
	)
	d := dispatch.New(ctx, eng.controller,
		dispatch.WithLogger(logger),
		dispatch.WithConcurrency(cfg.Concurrency),
		dispatch.WithOnDone(func(r dispatch.Result) {
			mu.Lock()
			defer mu.Unlock()
			results[r.SiteID] = r
		}),
	)

	logger.Info("scheduling scans", "sites", len(sites), "concurrency", cfg.Concurrency)
	d.SubmitAll(sites)
	d.Wait()

	completed, failed := 0, 0
	tbl := table.New("Site", "URL", "Scan", "Status", "Issues").WithWriter(out)
	for _, site := range sites {
		r := results[site.ID]
		scanID, status, issues := "-", "NOT STARTED", "-"
		if r.Scan != nil {
			scanID = r.Scan.ID
			status = string(r.Scan.Status)
			if list, err := db.ListIssues(context.WithoutCancel(ctx), r.Scan.ID); err == nil {
				issues = fmt.Sprint(len(list))
			}
		}
		if r.Err == nil && r.Scan != nil && r.Scan.Status == model.ScanCompleted {
			completed++
		} else {
			failed++
		}
		tbl.AddRow(site.ID, site.URL, scanID, status, issues)
	}
	tbl.Print()

	fmt.Fprintf(out, "\nScanned %d site(s): %d completed, %d failed\n", len(sites), completed, failed)
	return ctx.Err()
}
