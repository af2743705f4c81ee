// Package netclient builds the HTTP clients used for page fetching and
// resource probes.
//
// A client optionally routes through a SOCKS5 proxy, sends the configured
// User-Agent, and injects per-site cookies and headers. Credentials are only
// attached to requests for the site's own host so that probes of external
// links never carry them.
package netclient
