package crawler

import "errors"

// ErrInvalidSeed is returned when a seed URL is not an absolute http or https URL.
var ErrInvalidSeed = errors.New("invalid seed URL: must be an absolute http or https URL")
