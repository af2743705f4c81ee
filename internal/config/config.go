package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// Crawl bounds and timeouts match the limits the hosted service has always
// applied to a single site scan.
const (
	// DefaultMaxDepth is the deepest link distance from the seed page that is still rendered.
	// The seed page has depth 0.
	DefaultMaxDepth = 3

	// DefaultMaxPages is the maximum number of pages rendered per scan.
	// Links on those pages are still validated; only rendering is bounded.
	DefaultMaxPages = 50

	// DefaultRenderTimeout bounds a single page navigation.
	DefaultRenderTimeout = 25 * time.Second

	// DefaultSettleDelay is how long the renderer waits after the DOM is ready
	// so that late scripts can insert links and images.
	DefaultSettleDelay = 1 * time.Second

	// DefaultProbeTimeout bounds each HEAD or GET used to validate a resource.
	DefaultProbeTimeout = 25 * time.Second

	// DefaultConcurrency is the number of sites scanned in parallel by the scheduler.
	DefaultConcurrency = 10

	// DefaultUserAgent is a desktop Chrome UA with a product token appended so
	// that site operators can identify the checker in their logs.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 SiteHealthBot/1.0"

	// DefaultMaxBodySize limits how much of a page the static renderer reads.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// AppName is the application name used for XDG directory paths.
	AppName = "sitehealth"
)

// Log formats accepted by the LogFormat option.
const (
	// LogFormatText writes human-readable key=value lines.
	LogFormatText = "text"

	// LogFormatJSON writes one JSON object per line for log aggregation.
	LogFormatJSON = "json"
)

// Renderer names accepted by the Renderer option.
const (
	// RendererBrowser drives headless Chromium and sees script-inserted content.
	RendererBrowser = "browser"

	// RendererStatic fetches raw HTML and parses it without executing scripts.
	RendererStatic = "static"
)

// Config holds all configuration options for sitehealth.
// It is populated from defaults, the configuration file and CLI flags, then
// passed down explicitly to the components that need it.
//
// Design decision: a single flat struct. Per-site overrides live in SiteConfigs
// and are resolved through ForSite.
type Config struct {
	// MaxDepth is the maximum link depth from the seed page that is rendered.
	MaxDepth int

	// MaxPages is the maximum number of pages rendered per scan.
	MaxPages int

	// RenderTimeout bounds a single page navigation.
	RenderTimeout time.Duration

	// SettleDelay is the pause after DOM ready before links and images are read.
	SettleDelay time.Duration

	// ProbeTimeout bounds each validation request.
	ProbeTimeout time.Duration

	// UserAgent is sent with every navigation and probe.
	UserAgent string

	// Renderer selects the page renderer: RendererBrowser or RendererStatic.
	Renderer string

	// Concurrency is the number of sites scanned in parallel by the scheduler.
	Concurrency int

	// RequestsPerSecond limits validation probes within one scan.
	// Zero disables rate limiting.
	RequestsPerSecond float64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form used for
	// probes and static rendering. Empty means direct connections.
	ProxyAddress string

	// MaxBodySize is the maximum page body size read by the static renderer.
	MaxBodySize int64

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// LogFormat selects the log encoding: LogFormatText or LogFormatJSON.
	LogFormat string

	// ConfigFilePath is the path to the configuration file.
	// If empty, .sitehealth is searched in the current directory and then in
	// the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the config file.
	SiteConfigs *File

	// DBDir is the directory that holds the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/sitehealth on Linux).
	DBDir string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		MaxDepth:      DefaultMaxDepth,
		MaxPages:      DefaultMaxPages,
		RenderTimeout: DefaultRenderTimeout,
		SettleDelay:   DefaultSettleDelay,
		ProbeTimeout:  DefaultProbeTimeout,
		UserAgent:     DefaultUserAgent,
		Renderer:      RendererBrowser,
		Concurrency:   DefaultConcurrency,
		MaxBodySize:   DefaultMaxBodySize,
		LogFormat:     LogFormatText,
		DBDir:         XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for sitehealth.
// On Linux: ~/.local/share/sitehealth
// On macOS: ~/Library/Application Support/sitehealth
// On Windows: %LOCALAPPDATA%\sitehealth
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitehealth.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}

	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}

	if c.RenderTimeout <= 0 || c.ProbeTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.SettleDelay < 0 {
		return ErrInvalidSettleDelay
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.RequestsPerSecond < 0 {
		return ErrInvalidRequestRate
	}

	if c.Renderer != RendererBrowser && c.Renderer != RendererStatic {
		return ErrUnknownRenderer
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return ErrUnknownLogFormat
	}

	return nil
}

// ForSite returns the effective settings for a site host, given as it
// appears in the URL ("example.com" or "example.com:8080").
// Values from the configuration file override the global ones; anything the
// file leaves unset falls back to c.
func (c *Config) ForSite(host string) SiteConfig {
	var sc SiteConfig
	if c.SiteConfigs != nil {
		sc = c.SiteConfigs.GetSiteConfig(host)
	}

	if sc.Depth == 0 {
		sc.Depth = c.MaxDepth
	}
	if sc.MaxPages == 0 {
		sc.MaxPages = c.MaxPages
	}
	if sc.Renderer == "" {
		sc.Renderer = c.Renderer
	}
	return sc
}
