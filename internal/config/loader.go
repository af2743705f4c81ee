package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".sitehealth"

var (
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidPattern is returned when an ignore or follow pattern is not valid glob syntax.
	ErrInvalidPattern = errors.New("invalid URL pattern")
)

// LoadConfigFile loads site configurations from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Site keys are lower-cased so lookups by host are case-insensitive.
func LoadConfigFile(filePath string) (*File, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}

	sites := make(map[string]SiteConfig, len(cf.Sites))
	for host, sc := range cf.Sites {
		sites[strings.ToLower(host)] = sc
	}
	cf.Sites = sites

	if err := cf.validate(); err != nil {
		return nil, err
	}
	return &cf, nil
}

// validate checks glob patterns, renderer names and crawl limits in every section.
func (cf *File) validate() error {
	check := func(section string, sc SiteConfig) error {
		for _, p := range append(append([]string{}, sc.IgnorePatterns...), sc.FollowPatterns...) {
			if _, err := path.Match(p, "/"); err != nil {
				return fmt.Errorf("%w: %q in %s", ErrInvalidPattern, p, section)
			}
		}
		if sc.Renderer != "" && sc.Renderer != RendererBrowser && sc.Renderer != RendererStatic {
			return fmt.Errorf("%w: %q in %s", ErrUnknownRenderer, sc.Renderer, section)
		}
		if sc.Depth < 0 {
			return fmt.Errorf("%w: depth %d in %s", ErrInvalidMaxDepth, sc.Depth, section)
		}
		if sc.MaxPages < 0 {
			return fmt.Errorf("%w: maxPages %d in %s", ErrInvalidMaxPages, sc.MaxPages, section)
		}
		return nil
	}

	if err := check("defaults", cf.Defaults); err != nil {
		return err
	}
	for host, sc := range cf.Sites {
		if err := check(host, sc); err != nil {
			return err
		}
	}
	return nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .sitehealth in the current directory
// 3. Look for .sitehealth in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 2)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
