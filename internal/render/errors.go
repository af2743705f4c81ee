package render

import "errors"

var (
	// ErrNavigation is returned when a page could not be loaded at all
	// (DNS failure, refused connection, TLS error, timeout).
	ErrNavigation = errors.New("navigation failed")

	// ErrRendererClosed is returned when Render is called on a closed session.
	ErrRendererClosed = errors.New("renderer is closed")

	// ErrBrowserUnavailable is returned when the browser could not be started.
	ErrBrowserUnavailable = errors.New("browser is unavailable")
)
