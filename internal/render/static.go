package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nao1215/sitehealth/internal/netclient"
)

// DefaultMaxBodySize limits how much of a page is parsed.
const DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

// Static renders pages by fetching raw HTML without executing scripts.
// It suits server-rendered sites and needs no browser installation.
type Static struct {
	proxyAddress string
	maxBodySize  int64
	logger       *slog.Logger
}

// StaticOption configures a Static provider.
type StaticOption func(*Static)

// WithStaticProxy routes page fetches through a SOCKS5 proxy ("host:port").
func WithStaticProxy(address string) StaticOption {
	return func(s *Static) {
		s.proxyAddress = address
	}
}

// WithMaxBodySize sets the maximum number of body bytes parsed per page.
func WithMaxBodySize(size int64) StaticOption {
	return func(s *Static) {
		if size > 0 {
			s.maxBodySize = size
		}
	}
}

// WithStaticLogger sets the logger.
func WithStaticLogger(logger *slog.Logger) StaticOption {
	return func(s *Static) {
		s.logger = logger
	}
}

// NewStatic creates a Static provider.
func NewStatic(opts ...StaticOption) *Static {
	s := &Static{
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSession opens a session whose requests carry the site's settings.
func (s *Static) NewSession(_ context.Context, opts SessionOptions) (Renderer, error) {
	client, err := netclient.New(netclient.Options{
		ProxyAddress: s.proxyAddress,
		UserAgent:    opts.UserAgent,
		Host:         opts.Host,
		Cookie:       opts.Cookie,
		Headers:      opts.Headers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return NewStaticRenderer(client, opts.timeout(), s.maxBodySize, s.logger), nil
}

// Close implements Provider. Static holds no resources.
func (s *Static) Close() error {
	return nil
}

// StaticRenderer is a rendering session backed by an HTTP client.
type StaticRenderer struct {
	client      *http.Client
	timeout     time.Duration
	maxBodySize int64
	logger      *slog.Logger
	closed      atomic.Bool
}

// NewStaticRenderer creates a session that fetches pages through client.
func NewStaticRenderer(client *http.Client, timeout time.Duration, maxBodySize int64, logger *slog.Logger) *StaticRenderer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StaticRenderer{
		client:      client,
		timeout:     timeout,
		maxBodySize: maxBodySize,
		logger:      logger,
	}
}

// Render fetches pageURL and extracts links and images from HTML responses.
func (r *StaticRenderer) Render(ctx context.Context, pageURL string) (*Result, error) {
	if r.closed.Load() {
		return nil, ErrRendererClosed
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNavigation, err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNavigation, err)
	}
	defer resp.Body.Close()

	result := &Result{
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
	}
	if resp.StatusCode >= http.StatusBadRequest || !isHTML(resp.Header.Get("Content-Type")) {
		return result, nil
	}

	doc, err := parseDocument(resp.Request.URL, io.LimitReader(resp.Body, r.maxBodySize))
	if err != nil {
		r.logger.Debug("failed to parse page", "url", pageURL, "error", err)
		return result, nil
	}
	result.Links = doc.links
	result.Images = doc.images

	r.logger.Debug("rendered page", "url", pageURL, "status", resp.StatusCode,
		"links", len(result.Links), "images", len(result.Images))
	return result, nil
}

// Close marks the session closed and releases idle connections.
func (r *StaticRenderer) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	r.client.CloseIdleConnections()
	return nil
}

// isHTML reports whether a Content-Type header denotes an HTML document.
// A missing header is treated as HTML.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "html")
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
