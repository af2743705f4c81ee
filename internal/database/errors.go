package database

import "errors"

var (
	// ErrNotFound is returned when a site or scan does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSiteExists is returned when registering a URL that is already monitored.
	ErrSiteExists = errors.New("site already registered")

	// ErrInvalidURL is returned when a site URL is not an absolute http or https URL.
	ErrInvalidURL = errors.New("invalid site URL: must be an absolute http or https URL")

	// ErrInvalidStatus is returned when a site status is not one of the known values.
	ErrInvalidStatus = errors.New("invalid site status")

	// ErrInvalidTransition is returned when a scan status update would leave a terminal state.
	ErrInvalidTransition = errors.New("invalid scan status transition")
)
