package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers match them with errors.Is.
var (
	// ErrInvalidMaxDepth is returned when the crawl depth is negative.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMaxPages is returned when the page budget is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidTimeout is returned when the render or probe timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidSettleDelay is returned when the settle delay is negative.
	ErrInvalidSettleDelay = errors.New("invalid settle delay: must be non-negative")

	// ErrInvalidConcurrency is returned when the scheduler concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidRequestRate is returned when the probe rate limit is negative.
	ErrInvalidRequestRate = errors.New("invalid requests per second: must be non-negative")

	// ErrUnknownRenderer is returned when the renderer is neither "browser" nor "static".
	ErrUnknownRenderer = errors.New("unknown renderer: must be \"browser\" or \"static\"")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrUnknownLogFormat is returned when the log format is neither "text" nor "json".
	ErrUnknownLogFormat = errors.New("unknown log format: must be \"text\" or \"json\"")
)
