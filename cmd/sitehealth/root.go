package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitehealth/internal/config"
)

// NewRootCmd creates the root command for sitehealth.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitehealth",
		Short: "Broken link and image monitor for websites",
		Long: `sitehealth finds broken links and images on the websites you monitor.

Each scan renders the site breadth-first from its root URL, checks every link
and image it finds, and records the broken ones. Results are stored in a local
database so they can be exported or compared with earlier scans.

By default pages are rendered in headless Chromium. Use --renderer static for
server-rendered sites when no browser is available.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .sitehealth in current or home directory)")
	cmd.PersistentFlags().String("log-format", config.LogFormatText,
		"Log format on stderr: text or json (json suits cron and log collectors)")
	cmd.PersistentFlags().String("data-dir", "",
		"Directory of the results database (default: XDG data directory)")

	// Add subcommands
	cmd.AddCommand(NewSiteCmd())
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewScheduleCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
