package render

import (
	"context"
	"time"
)

// Default session settings.
const (
	// DefaultTimeout bounds a single page navigation.
	DefaultTimeout = 25 * time.Second

	// DefaultSettleDelay is the pause after DOMContentLoaded before extraction.
	DefaultSettleDelay = 1 * time.Second
)

// Image is an embedded image found on a rendered page.
type Image struct {
	// Src is the absolute image URL as resolved by the page.
	Src string

	// Loaded is false when the renderer saw the image fail to materialize.
	// The static renderer cannot observe loads and always reports false, so
	// every image it finds is confirmed with a direct fetch.
	Loaded bool
}

// Result is what a renderer observed on one page.
type Result struct {
	// StatusCode is the HTTP status of the main document.
	// Zero means the renderer received no response object.
	StatusCode int

	// FinalURL is the page address after redirects.
	FinalURL string

	// Links are the absolute targets of a[href] elements in document order.
	// Non-http schemes such as mailto: are included as written.
	Links []string

	// Images are the img elements in document order.
	Images []Image
}

// Renderer loads pages for one scan.
// When the page status is >= 400 no links or images are extracted.
// A page that cannot be loaded at all yields an error wrapping ErrNavigation.
type Renderer interface {
	Render(ctx context.Context, pageURL string) (*Result, error)
	Close() error
}

// SessionOptions configures one rendering session.
type SessionOptions struct {
	// Host is the site host; Cookie and Headers are only sent to it.
	Host string

	// UserAgent identifies the crawler.
	UserAgent string

	// Cookie is a raw cookie string, e.g. "session=abc; theme=dark".
	Cookie string

	// Headers are extra request headers for the site.
	Headers map[string]string

	// Timeout bounds each navigation. Zero means DefaultTimeout.
	Timeout time.Duration

	// SettleDelay is the pause after DOMContentLoaded (browser only).
	SettleDelay time.Duration
}

func (o SessionOptions) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

// Provider opens rendering sessions.
type Provider interface {
	NewSession(ctx context.Context, opts SessionOptions) (Renderer, error)
	Close() error
}
