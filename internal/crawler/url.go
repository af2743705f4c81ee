package crawler

import (
	"net/url"
	"path/filepath"
	"strings"
)

// ignoredSchemes are link schemes that never denote a fetchable resource.
var ignoredSchemes = map[string]bool{
	"mailto":     true,
	"javascript": true,
	"tel":        true,
	"data":       true,
}

// IsCheckable reports whether rawURL is an absolute http or https URL.
// mailto:, javascript:, tel: and data: targets are never checkable.
func IsCheckable(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if ignoredSchemes[scheme] {
		return false
	}
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// NormalizeURL normalizes a URL for visited-set bookkeeping.
// The fragment is removed, scheme and host are lower-cased, and a single
// trailing slash is stripped so "https://a.test/docs/" and
// "https://a.test/docs" are the same page.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return strings.TrimSuffix(rawURL, "/")
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	return strings.TrimSuffix(u.String(), "/")
}

// sameHost reports whether rawURL points at host, ignoring case.
func sameHost(host, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, host)
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//
// "/admin/*" also matches everything below /admin, and "*.pdf" matches
// the file name in any directory.
func matchPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") && strings.HasSuffix(path, strings.TrimPrefix(pattern, "*")) {
		return true
	}

	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}

	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}
	return false
}
