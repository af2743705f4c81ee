package main

import (
	"errors"
	"fmt"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/nao1215/sitehealth/internal/model"
	"github.com/nao1215/sitehealth/internal/report"
)

// NewCompareCmd creates the compare command.
// This command compares the two latest completed scans of a site.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <site-id|url>",
		Short: "Compare the latest scan of a site with the previous one",
		Long: `Compare shows which broken links and images are new since the previous
completed scan and which were fixed.

Issues are matched by type, broken URL and the page they were found on.

Examples:
  # Compare the two latest completed scans
  sitehealth compare https://www.example.com

  # List the scan history of a site
  sitehealth compare --list https://www.example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("list", "l", false, "List the scan history of the site")
	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
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

	out := cmd.OutOrStdout()

	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		scans, err := db.ListScans(ctx, site.ID, 0)
		if err != nil {
			return err
		}
		if len(scans) == 0 {
			fmt.Fprintf(out, "No scans for %s\n", site.URL)
			return nil
		}
		tbl := table.New("Scan", "Status", "Started", "Duration").WithWriter(out)
		for _, s := range scans {
			tbl.AddRow(s.ID, s.Status, s.StartedAt.Local().Format("2006-01-02 15:04:05"), s.Duration())
		}
		tbl.Print()
		return nil
	}

	scans, err := db.ListScans(ctx, site.ID, 2, model.ScanCompleted)
	if err != nil {
		return err
	}
	if len(scans) < 2 {
		return errors.New("at least two completed scans are required to compare (use --list to see the scan history)")
	}
	current, previous := scans[0], scans[1]

	currentIssues, err := db.ListIssues(ctx, current.ID)
	if err != nil {
		return err
	}
	previousIssues, err := db.ListIssues(ctx, previous.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Comparing %s\n  previous: %s (%s)\n  current:  %s (%s)\n\n",
		site.URL,
		previous.ID, previous.StartedAt.Local().Format("2006-01-02 15:04:05"),
		current.ID, current.StartedAt.Local().Format("2006-01-02 15:04:05"),
	)
	return report.WriteComparison(out, report.Compare(previousIssues, currentIssues))
}
