package config

import (
	"net"
	"strings"
)

// SiteConfig holds site-specific configuration for a single host.
// This allows customizing crawl behavior per monitored website.
type SiteConfig struct {
	// Cookie is an HTTP cookie sent with navigations and probes to this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth overrides the global MaxDepth for this site.
	// If zero, the global value is used.
	Depth int `yaml:"depth,omitempty"`

	// MaxPages overrides the global page budget for this site.
	MaxPages int `yaml:"maxPages,omitempty"`

	// Renderer overrides the global renderer ("browser" or "static").
	Renderer string `yaml:"renderer,omitempty"`

	// IgnorePatterns are URL path patterns that are never rendered.
	// Patterns use glob syntax, e.g. "/admin/*".
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns restrict rendering to matching URL paths when non-empty.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File represents the structure of the .sitehealth configuration file.
type File struct {
	// Sites maps hosts (e.g. "www.example.com" or "localhost:8080") to their
	// configurations. A bare host name applies to every port of that host.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults is applied to all sites unless overridden per site.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a host merged with the defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	siteConfig, ok := cf.lookupSite(host)
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.Depth != 0 {
		result.Depth = siteConfig.Depth
	}
	if siteConfig.MaxPages != 0 {
		result.MaxPages = siteConfig.MaxPages
	}
	if siteConfig.Renderer != "" {
		result.Renderer = siteConfig.Renderer
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(siteConfig.Headers))
		}
		for k, v := range siteConfig.Headers {
			result.Headers[k] = v
		}
	}
	if len(siteConfig.IgnorePatterns) > 0 {
		result.IgnorePatterns = siteConfig.IgnorePatterns
	}
	if len(siteConfig.FollowPatterns) > 0 {
		result.FollowPatterns = siteConfig.FollowPatterns
	}

	return result
}

// lookupSite finds the section for host. A key with a port ("example.com:8080")
// wins over the bare host name, which matches the host on any port.
func (cf *File) lookupSite(host string) (SiteConfig, bool) {
	host = strings.ToLower(host)
	if sc, ok := cf.Sites[host]; ok {
		return sc, true
	}
	if name, _, err := net.SplitHostPort(host); err == nil {
		sc, ok := cf.Sites[name]
		return sc, ok
	}
	return SiteConfig{}, false
}
