// Package config provides configuration structures and utilities for sitehealth.
// It defines crawl bounds, timeouts, renderer selection and the optional
// .sitehealth YAML file with per-site overrides.
package config
