package render

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/playwright-community/playwright-go"
)

// extractScript collects resolved link targets and image load state.
// Serializing to JSON keeps the Go side independent of Playwright's value mapping.
const extractScript = `() => JSON.stringify({
  links: Array.from(document.querySelectorAll('a[href]'), a => a.href),
  images: Array.from(document.querySelectorAll('img'), img => ({
    src: img.currentSrc || img.src || '',
    loaded: img.complete && img.naturalWidth > 0
  }))
})`

// Browser renders pages in headless Chromium.
//
// Design decision: The Playwright driver and the browser process are started
// lazily on the first session and shared by every scan of the process. Each
// session gets its own browser context, so cookies and storage never leak
// between sites. A launch failure is returned by NewSession, which makes it
// an engine failure of the scan that asked for the session.
type Browser struct {
	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
	logger  *slog.Logger

	installBrowsers bool
}

// BrowserOption configures a Browser.
type BrowserOption func(*Browser)

// WithBrowserLogger sets the logger.
func WithBrowserLogger(logger *slog.Logger) BrowserOption {
	return func(b *Browser) {
		b.logger = logger
	}
}

// WithInstallBrowsers makes the first launch download Chromium when missing.
func WithInstallBrowsers(install bool) BrowserOption {
	return func(b *Browser) {
		b.installBrowsers = install
	}
}

// NewBrowser creates a Browser provider. No process is started until NewSession.
func NewBrowser(opts ...BrowserOption) *Browser {
	b := &Browser{logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// launch starts the driver and Chromium if they are not running yet.
func (b *Browser) launch() (playwright.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil && b.browser.IsConnected() {
		return b.browser, nil
	}

	if b.pw == nil {
		pw, err := playwright.Run(&playwright.RunOptions{
			SkipInstallBrowsers: !b.installBrowsers,
			Browsers:            []string{"chromium"},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: failed to start playwright: %w", ErrBrowserUnavailable, err)
		}
		b.pw = pw
	}

	browser, err := b.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args:     []string{"--no-sandbox"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to launch chromium: %w", ErrBrowserUnavailable, err)
	}
	b.browser = browser
	b.logger.Debug("chromium launched", "version", browser.Version())
	return browser, nil
}

// NewSession opens an isolated browser context for one scan.
func (b *Browser) NewSession(ctx context.Context, opts SessionOptions) (Renderer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, err := b.launch()
	if err != nil {
		return nil, err
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:         playwright.String(opts.UserAgent),
		IgnoreHttpsErrors: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create browser context: %w", ErrBrowserUnavailable, err)
	}
	bctx.SetDefaultNavigationTimeout(float64(opts.timeout().Milliseconds()))

	if err := applySiteCredentials(bctx, opts); err != nil {
		_ = bctx.Close()
		return nil, err
	}

	return &BrowserRenderer{
		bctx:    bctx,
		timeout: float64(opts.timeout().Milliseconds()),
		settle:  float64(opts.SettleDelay.Milliseconds()),
		logger:  b.logger,
	}, nil
}

// applySiteCredentials installs the site's cookie and headers on the context.
// Both are limited to the site host.
func applySiteCredentials(bctx playwright.BrowserContext, opts SessionOptions) error {
	if opts.Host == "" {
		return nil
	}

	if opts.Cookie != "" {
		parsed, err := http.ParseCookie(opts.Cookie)
		if err != nil {
			return fmt.Errorf("invalid cookie for %s: %w", opts.Host, err)
		}
		cookies := make([]playwright.OptionalCookie, 0, len(parsed))
		for _, c := range parsed {
			cookies = append(cookies, playwright.OptionalCookie{
				Name:   c.Name,
				Value:  c.Value,
				Domain: playwright.String(hostOnly(opts.Host)),
				Path:   playwright.String("/"),
			})
		}
		if err := bctx.AddCookies(cookies); err != nil {
			return fmt.Errorf("failed to add cookies: %w", err)
		}
	}

	if len(opts.Headers) == 0 {
		return nil
	}
	headers := make(map[string]string, len(opts.Headers))
	for k, v := range opts.Headers {
		headers[strings.ToLower(k)] = v
	}
	return bctx.Route("**/*", func(route playwright.Route) {
		req := route.Request()
		u, err := url.Parse(req.URL())
		if err != nil || (!strings.EqualFold(u.Host, opts.Host) && !strings.EqualFold(u.Hostname(), opts.Host)) {
			_ = route.Continue()
			return
		}
		merged := req.Headers()
		for k, v := range headers {
			merged[k] = v
		}
		_ = route.Continue(playwright.RouteContinueOptions{Headers: merged})
	})
}

// hostOnly strips the port from host.
func hostOnly(host string) string {
	if u, err := url.Parse("//" + host); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return host
}

// Close stops Chromium and the Playwright driver.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
		b.browser = nil
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		b.pw = nil
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// BrowserRenderer is one scan's browser context.
type BrowserRenderer struct {
	bctx    playwright.BrowserContext
	timeout float64
	settle  float64
	logger  *slog.Logger
	closed  atomic.Bool
}

// extraction mirrors the JSON produced by extractScript.
type extraction struct {
	Links  []string `json:"links"`
	Images []struct {
		Src    string `json:"src"`
		Loaded bool   `json:"loaded"`
	} `json:"images"`
}

// Render navigates to pageURL, waits for DOMContentLoaded and the settle
// delay, then reads links and images from the live DOM.
func (r *BrowserRenderer) Render(ctx context.Context, pageURL string) (*Result, error) {
	if r.closed.Load() {
		return nil, ErrRendererClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := r.bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			r.logger.Debug("failed to close page", "url", pageURL, "error", err)
		}
	}()

	resp, err := page.Goto(pageURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(r.timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNavigation, err)
	}

	result := &Result{FinalURL: page.URL()}
	if resp != nil {
		result.StatusCode = resp.Status()
	}
	if result.StatusCode >= http.StatusBadRequest {
		return result, nil
	}

	if r.settle > 0 {
		page.WaitForTimeout(r.settle)
	}

	raw, err := page.Evaluate(extractScript)
	if err != nil {
		return nil, fmt.Errorf("failed to extract links from %s: %w", pageURL, err)
	}
	encoded, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected extraction result %T from %s", raw, pageURL)
	}

	var ex extraction
	if err := json.Unmarshal([]byte(encoded), &ex); err != nil {
		return nil, fmt.Errorf("failed to decode extraction result: %w", err)
	}
	result.Links = ex.Links
	result.Images = make([]Image, 0, len(ex.Images))
	for _, img := range ex.Images {
		result.Images = append(result.Images, Image{Src: img.Src, Loaded: img.Loaded})
	}

	r.logger.Debug("rendered page", "url", pageURL, "status", result.StatusCode,
		"links", len(result.Links), "images", len(result.Images))
	return result, nil
}

// Close closes the browser context and every page in it.
func (r *BrowserRenderer) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	return r.bctx.Close()
}
