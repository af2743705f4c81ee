package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/nao1215/sitehealth/internal/database"
	"github.com/nao1215/sitehealth/internal/dispatch"
	"github.com/nao1215/sitehealth/internal/model"
)

// NewSiteCmd creates the site command group.
func NewSiteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site",
		Short: "Manage monitored sites",
		Long: `Register websites for monitoring and list the registered ones.

Examples:
  # Register a site and run its first scan
  sitehealth site add https://www.example.com

  # Register without scanning
  sitehealth site add --no-scan https://www.example.com

  # Show every registered site with its latest status
  sitehealth site list`,
	}

	cmd.AddCommand(NewSiteAddCmd())
	cmd.AddCommand(NewSiteListCmd())
	return cmd
}

// NewSiteAddCmd creates the site add command.
func NewSiteAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Register a site and start its first scan",
		Long: `Add registers an absolute http or https URL for monitoring.

The new site starts in IDLE state. Unless --no-scan is given, an initial scan
is started right away and the command waits for it to finish.`,
		Args: cobra.ExactArgs(1),
		RunE: runSiteAddCmd,
	}

	cmd.Flags().Bool("no-scan", false, "Register the site without scanning it")
	addCrawlFlags(cmd)
	return cmd
}

// runSiteAddCmd executes the site add command.
func runSiteAddCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	ctx, stop := signalContext()
	defer stop()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	site, err := db.CreateSite(ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Registered site %s (%s)\n", site.ID, site.URL)

	noScan, err := cmd.Flags().GetBool("no-scan")
	if err != nil {
		return err
	}
	if noScan {
		return nil
	}

	eng := newEngine(cmd, cfg, db, logger)
	defer eng.Close()

	var result dispatch.Result
	d := dispatch.New(ctx, eng.controller,
		dispatch.WithLogger(logger),
		dispatch.WithOnDone(func(r dispatch.Result) { result = r }),
	)
	d.Submit(site.ID, site.URL)
	fmt.Fprintln(out, "Initial scan started...")
	d.Wait()

	return printScanOutcome(ctx, out, db, result)
}

// printScanOutcome prints a one-line summary of a finished scan.
func printScanOutcome(ctx context.Context, out io.Writer, db *database.SiteDB, r dispatch.Result) error {
	if r.Scan == nil {
		return fmt.Errorf("scan of %s could not be started: %w", r.URL, r.Err)
	}

	issues, err := db.ListIssues(context.WithoutCancel(ctx), r.Scan.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Scan %s %s: %d issue(s)\n", r.Scan.ID, r.Scan.Status, len(issues))
	if r.Err != nil {
		return fmt.Errorf("scan of %s failed: %w", r.URL, r.Err)
	}
	return nil
}

// NewSiteListCmd creates the site list command.
func NewSiteListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered sites",
		Args:  cobra.NoArgs,
		RunE:  runSiteListCmd,
	}
}

// runSiteListCmd executes the site list command.
func runSiteListCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	sites, err := db.ListSites(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(sites) == 0 {
		fmt.Fprintln(out, "No sites registered. Use 'sitehealth site add <url>' to add one.")
		return nil
	}

	tbl := table.New("ID", "URL", "Status", "Last Scan").WithWriter(out)
	for _, site := range sites {
		tbl.AddRow(site.ID, site.URL, site.Status, formatLastScan(site))
	}
	tbl.Print()
	return nil
}

// formatLastScan returns the last scan time of a site for display.
func formatLastScan(site *model.Site) string {
	if site.LastScanAt == nil {
		return "never"
	}
	return site.LastScanAt.Local().Format("2006-01-02 15:04:05")
}
