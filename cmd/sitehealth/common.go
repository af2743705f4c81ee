package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitehealth/internal/config"
	"github.com/nao1215/sitehealth/internal/database"
	applog "github.com/nao1215/sitehealth/internal/log"
	"github.com/nao1215/sitehealth/internal/model"
	"github.com/nao1215/sitehealth/internal/render"
	"github.com/nao1215/sitehealth/internal/scan"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getGlobalString retrieves a persistent string flag from the command or the root.
func getGlobalString(cmd *cobra.Command, name string) string {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		value, err = cmd.Root().PersistentFlags().GetString(name)
		if err != nil {
			return ""
		}
	}
	return value
}

// setupLogger creates a structured logger on stderr in the configured format.
// Credentials from site configurations are masked before they reach the output.
func setupLogger(cfg *config.Config) *slog.Logger {
	return newLogger(os.Stderr, cfg)
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.LogFormat == config.LogFormatJSON {
		return applog.NewSecureJSONLogger(w, cfg.Verbose)
	}
	return applog.NewSecureLogger(w, cfg.Verbose)
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// addCrawlFlags registers the flags shared by every command that crawls.
func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link depth from the root page that is rendered")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages rendered per scan")
	cmd.Flags().StringP("renderer", "r", config.RendererBrowser,
		"Page renderer: browser (headless Chromium) or static (plain HTML)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultRenderTimeout,
		"Timeout for each page navigation")
	cmd.Flags().Duration("probe-timeout", config.DefaultProbeTimeout,
		"Timeout for each link or image check")
	cmd.Flags().Duration("settle", config.DefaultSettleDelay,
		"Pause after the page is ready before links are read (browser only)")
	cmd.Flags().Float64("rate", 0,
		"Maximum link checks per second within one scan (0 = unlimited)")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy (host:port) for link checks and static rendering")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent sent with every request")
	cmd.Flags().Bool("install-browsers", false,
		"Download Chromium on first use if it is not installed")
}

// buildConfig creates a Config from global flags, crawl flags (when the
// command has them) and the configuration file.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	if cmd.Flags().Lookup("depth") != nil {
		if err := applyCrawlFlags(cmd, cfg); err != nil {
			return nil, err
		}
	}

	if dir := getGlobalString(cmd, "data-dir"); dir != "" {
		cfg.DBDir = dir
	}
	cfg.ConfigFilePath = getGlobalString(cmd, "config")
	if format := getGlobalString(cmd, "log-format"); format != "" {
		cfg.LogFormat = format
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

func applyCrawlFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if cfg.MaxDepth, err = flags.GetInt("depth"); err != nil {
		return err
	}
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return err
	}
	if cfg.Renderer, err = flags.GetString("renderer"); err != nil {
		return err
	}
	if cfg.RenderTimeout, err = flags.GetDuration("timeout"); err != nil {
		return err
	}
	if cfg.ProbeTimeout, err = flags.GetDuration("probe-timeout"); err != nil {
		return err
	}
	if cfg.SettleDelay, err = flags.GetDuration("settle"); err != nil {
		return err
	}
	if cfg.RequestsPerSecond, err = flags.GetFloat64("rate"); err != nil {
		return err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return err
	}
	return nil
}

// openDB opens the results database in cfg.DBDir.
func openDB(cfg *config.Config) (*database.SiteDB, error) {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// engine bundles the scan controller with the renderer providers it owns.
type engine struct {
	controller *scan.Controller
	providers  map[string]render.Provider
	logger     *slog.Logger
}

// newEngine wires the renderers and the controller for cfg.
func newEngine(cmd *cobra.Command, cfg *config.Config, db *database.SiteDB, logger *slog.Logger) *engine {
	installBrowsers := false
	if f := cmd.Flags().Lookup("install-browsers"); f != nil {
		installBrowsers, _ = cmd.Flags().GetBool("install-browsers")
	}

	providers := map[string]render.Provider{
		config.RendererBrowser: render.NewBrowser(
			render.WithBrowserLogger(logger),
			render.WithInstallBrowsers(installBrowsers),
		),
		config.RendererStatic: render.NewStatic(
			render.WithStaticProxy(cfg.ProxyAddress),
			render.WithMaxBodySize(cfg.MaxBodySize),
			render.WithStaticLogger(logger),
		),
	}

	return &engine{
		controller: scan.NewController(cfg, db, providers, scan.WithLogger(logger)),
		providers:  providers,
		logger:     logger,
	}
}

// Close shuts down every renderer provider.
func (e *engine) Close() {
	for name, p := range e.providers {
		if err := p.Close(); err != nil {
			e.logger.Warn("failed to close renderer", "renderer", name, "error", err)
		}
	}
}

// resolveSite finds a site by ID or by its registered URL.
func resolveSite(ctx context.Context, db *database.SiteDB, ref string) (*model.Site, error) {
	site, err := db.GetSite(ctx, ref)
	if err == nil {
		return site, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	site, err = db.FindSiteByURL(ctx, ref)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("site not found: %s (use 'sitehealth site list' to see registered sites)", ref)
		}
		return nil, err
	}
	return site, nil
}
