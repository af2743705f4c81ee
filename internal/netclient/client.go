package netclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// maxRedirects caps redirect chains so that loops terminate.
const maxRedirects = 10

// Options configures an HTTP client.
type Options struct {
	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form.
	ProxyAddress string

	// Timeout is the overall request timeout. Zero means no client-level timeout;
	// callers then bound requests with a context.
	Timeout time.Duration

	// UserAgent is set on every request that does not carry one already.
	UserAgent string

	// Host restricts Cookie and Headers to requests for this host.
	// Empty means they are sent with every request.
	Host string

	// Cookie is a raw cookie string, e.g. "session_id=abc123".
	Cookie string

	// Headers are extra request headers.
	Headers map[string]string
}

// New creates an HTTP client from opts.
//
// TLS verification is disabled: a site serving an expired or self-signed
// certificate is still crawled, and its links still validated.
func New(opts Options) (*http.Client, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // Certificate problems are not link problems
		},
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if opts.ProxyAddress != "" {
		dialContext, err := socks5DialContext(opts.ProxyAddress)
		if err != nil {
			return nil, err
		}
		transport.Proxy = nil
		transport.DialContext = dialContext
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	return &http.Client{
		Transport: &headerInjectingTransport{
			base:      transport,
			userAgent: opts.UserAgent,
			host:      strings.ToLower(opts.Host),
			cookie:    opts.Cookie,
			headers:   opts.Headers,
		},
		Timeout: opts.Timeout,
		Jar:     jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// socks5DialContext returns a DialContext function that connects through a SOCKS5 proxy.
func socks5DialContext(address string) (func(ctx context.Context, network, addr string) (net.Conn, error), error) {
	if !isValidProxyAddress(address) {
		return nil, ErrInvalidProxyAddress
	}

	dialer, err := proxy.SOCKS5("tcp", address, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	if cd, ok := dialer.(proxy.ContextDialer); ok {
		return cd.DialContext, nil
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return dialer.Dial(network, addr)
	}, nil
}

// isValidProxyAddress checks that address is "host:port" with a port in 1-65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// matchesHost reports whether u is on host. host may include a port.
func matchesHost(u *url.URL, host string) bool {
	return strings.EqualFold(u.Host, host) || strings.EqualFold(u.Hostname(), host)
}

// headerInjectingTransport wraps an http.RoundTripper to inject the
// User-Agent and the site's cookie and headers into every request.
type headerInjectingTransport struct {
	base      http.RoundTripper
	userAgent string
	host      string
	cookie    string
	headers   map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if t.userAgent != "" && clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", t.userAgent)
	}

	if t.host == "" || matchesHost(clone.URL, t.host) {
		if t.cookie != "" {
			if existing := clone.Header.Get("Cookie"); existing != "" {
				clone.Header.Set("Cookie", existing+"; "+t.cookie)
			} else {
				clone.Header.Set("Cookie", t.cookie)
			}
		}
		for key, value := range t.headers {
			clone.Header.Set(key, value)
		}
	}

	return t.base.RoundTrip(clone)
}
