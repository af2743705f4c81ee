package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/sitehealth/internal/config"
	"github.com/nao1215/sitehealth/internal/crawler"
	"github.com/nao1215/sitehealth/internal/model"
	"github.com/nao1215/sitehealth/internal/netclient"
	"github.com/nao1215/sitehealth/internal/render"
)

// Controller runs crawls and drives the scan state machine.
type Controller struct {
	cfg       *config.Config
	gateway   Gateway
	providers map[string]render.Provider
	logger    *slog.Logger
	now       func() time.Time
	retry     retryPolicy
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithClock sets the time source used for completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRetry sets how persistence calls are retried.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Controller) {
		c.retry = retryPolicy{attempts: attempts, backoff: backoff}
	}
}

// NewController creates a Controller.
// providers maps renderer names (config.RendererBrowser, config.RendererStatic)
// to the providers that open rendering sessions for them.
func NewController(cfg *config.Config, gateway Gateway, providers map[string]render.Provider, opts ...Option) *Controller {
	c := &Controller{
		cfg:       cfg,
		gateway:   gateway,
		providers: providers,
		now:       time.Now,
		retry:     retryPolicy{attempts: DefaultRetryAttempts, backoff: DefaultRetryBackoff},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Run crawls seedURL for siteID and persists the outcome.
//
// The returned scan carries its final status. An error wrapping ErrCreateScan
// means nothing was persisted; an error wrapping ErrEngine means the scan was
// marked FAILED. Page and resource failures are issues, not errors.
func (c *Controller) Run(ctx context.Context, siteID, seedURL string) (*model.Scan, error) {
	logger := c.logger.With("site", siteID)

	var scan *model.Scan
	err := c.retry.do(ctx, func(ctx context.Context) error {
		created, err := c.gateway.CreateScan(ctx, siteID)
		if err != nil {
			return err
		}
		scan = created
		return nil
	})
	if err != nil {
		logger.Error("failed to create scan", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrCreateScan, err)
	}

	logger = logger.With("scan", scan.ID)
	logger.Info("scan started", "url", seedURL)

	c.persist(ctx, logger, "update site status", func(ctx context.Context) error {
		return c.gateway.UpdateSiteStatus(ctx, siteID, model.SiteProcessing, nil)
	})

	issues, pages, crawlErr := c.crawl(ctx, logger, seedURL)

	// Results are written even when ctx was canceled.
	finalCtx := context.WithoutCancel(ctx)
	finishedAt := c.now().UTC()
	scan.CompletedAt = &finishedAt

	if crawlErr != nil {
		logger.Error("scan failed", "error", crawlErr, "pages", pages)

		scan.Status = model.ScanFailed
		c.persist(finalCtx, logger, "mark scan failed", func(ctx context.Context) error {
			return c.gateway.UpdateScanStatus(ctx, scan.ID, model.ScanFailed, &finishedAt)
		})
		c.persist(finalCtx, logger, "mark site error", func(ctx context.Context) error {
			return c.gateway.UpdateSiteStatus(ctx, siteID, model.SiteError, nil)
		})
		return scan, crawlErr
	}

	for i := range issues {
		issues[i].ScanID = scan.ID
		issues[i].DetectedAt = finishedAt
	}

	c.persist(finalCtx, logger, "insert issues", func(ctx context.Context) error {
		return c.gateway.InsertIssues(ctx, scan.ID, issues)
	})
	scan.Status = model.ScanCompleted
	c.persist(finalCtx, logger, "mark scan completed", func(ctx context.Context) error {
		return c.gateway.UpdateScanStatus(ctx, scan.ID, model.ScanCompleted, &finishedAt)
	})
	c.persist(finalCtx, logger, "mark site completed", func(ctx context.Context) error {
		return c.gateway.UpdateSiteStatus(ctx, siteID, model.SiteCompleted, &finishedAt)
	})

	logger.Info("scan completed",
		"pages", pages,
		"issues", len(issues),
		"duration", scan.Duration(),
	)
	return scan, nil
}

// persist runs a gateway call with retries. A call that still fails is
// logged and the run goes on.
func (c *Controller) persist(ctx context.Context, logger *slog.Logger, op string, fn func(context.Context) error) {
	if err := c.retry.do(ctx, fn); err != nil {
		logger.Error("persistence failed", "op", op, "error", err)
	}
}

// crawlState is the per-run state of one crawl.
type crawlState struct {
	logger    *slog.Logger
	frontier  *crawler.Frontier
	renderer  render.Renderer
	validator *crawler.Validator
	images    *crawler.ImageValidator
	issues    *crawler.Aggregator

	// checked caches link statuses so a link shared by many pages is probed once.
	checked map[string]int
}

// crawl walks the site breadth-first and returns the deduplicated issues and
// the number of pages rendered.
func (c *Controller) crawl(ctx context.Context, logger *slog.Logger, seedURL string) (issues []model.Issue, pages int, err error) {
	var st *crawlState
	defer func() {
		if r := recover(); r != nil {
			logger.Error("recovered from panic in crawl loop", "panic", r)
			issues = nil
			err = fmt.Errorf("%w: panic: %v", ErrEngine, r)
		}
		if st != nil {
			pages = st.frontier.Rendered()
		}
	}()

	st, err = c.newCrawlState(ctx, logger, seedURL)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if cerr := st.renderer.Close(); cerr != nil {
			logger.Debug("failed to close renderer", "error", cerr)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, fmt.Errorf("%w: crawl interrupted: %w", ErrEngine, err)
		}

		entry, ok := st.frontier.Next()
		if !ok {
			if left := st.frontier.Pending(); left > 0 {
				logger.Info("page budget reached", "rendered", st.frontier.Rendered(), "unrendered", left)
			}
			break
		}
		if err := c.visit(ctx, st, entry); err != nil {
			return nil, 0, err
		}
	}
	return st.issues.Issues(), 0, nil
}

// newCrawlState builds the per-run frontier, HTTP client, validators and
// rendering session for seedURL.
func (c *Controller) newCrawlState(ctx context.Context, logger *slog.Logger, seedURL string) (*crawlState, error) {
	seed, err := url.Parse(strings.TrimSpace(seedURL))
	if err != nil || !crawler.IsCheckable(seedURL) {
		return nil, fmt.Errorf("%w: %w: %q", ErrEngine, crawler.ErrInvalidSeed, seedURL)
	}

	site := c.cfg.ForSite(seed.Host)

	provider, ok := c.providers[site.Renderer]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %q", ErrEngine, config.ErrUnknownRenderer, site.Renderer)
	}

	frontier := crawler.NewFrontier(
		crawler.WithMaxDepth(site.Depth),
		crawler.WithMaxPages(site.MaxPages),
		crawler.WithIgnorePatterns(site.IgnorePatterns),
		crawler.WithFollowPatterns(site.FollowPatterns),
	)
	if err := frontier.Seed(seed.String()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngine, err)
	}

	client, err := netclient.New(netclient.Options{
		ProxyAddress: c.cfg.ProxyAddress,
		UserAgent:    c.cfg.UserAgent,
		Host:         seed.Host,
		Cookie:       site.Cookie,
		Headers:      site.Headers,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create HTTP client: %w", ErrEngine, err)
	}

	validator := crawler.NewValidator(client,
		crawler.WithProbeTimeout(c.cfg.ProbeTimeout),
		crawler.WithRateLimit(c.cfg.RequestsPerSecond),
		crawler.WithValidatorLogger(logger),
	)

	renderer, err := provider.NewSession(ctx, render.SessionOptions{
		Host:        seed.Host,
		UserAgent:   c.cfg.UserAgent,
		Cookie:      site.Cookie,
		Headers:     site.Headers,
		Timeout:     c.cfg.RenderTimeout,
		SettleDelay: c.cfg.SettleDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s renderer: %w", ErrEngine, site.Renderer, err)
	}

	logger.Debug("crawl configured",
		"renderer", site.Renderer,
		"max_depth", site.Depth,
		"max_pages", site.MaxPages,
	)

	return &crawlState{
		logger:    logger,
		frontier:  frontier,
		renderer:  renderer,
		validator: validator,
		images:    crawler.NewImageValidator(validator),
		issues:    crawler.NewAggregator(),
		checked:   make(map[string]int),
	}, nil
}

// visit renders one page and validates everything it references.
// Only a closed renderer is returned as an error; every other failure
// becomes an issue.
func (c *Controller) visit(ctx context.Context, st *crawlState, entry crawler.Entry) error {
	logger := st.logger.With("page", entry.URL, "depth", entry.Depth)

	result, err := st.renderer.Render(ctx, entry.URL)
	if err != nil {
		if errors.Is(err, render.ErrRendererClosed) {
			return fmt.Errorf("%w: %w", ErrEngine, err)
		}
		logger.Warn("page failed to load", "error", err)
		st.issues.Add(model.Issue{
			Kind:       model.KindBrokenLink,
			URL:        entry.URL,
			PageURL:    model.EntryPoint,
			StatusCode: model.StatusNetworkFailure,
		})
		return nil
	}

	if result.StatusCode >= 400 {
		logger.Info("page returned error status", "status", result.StatusCode)
		st.issues.Add(model.Issue{
			Kind:       model.KindBrokenLink,
			URL:        entry.URL,
			PageURL:    model.EntryPoint,
			StatusCode: result.StatusCode,
		})
		return nil
	}

	logger.Debug("page rendered",
		"status", result.StatusCode,
		"links", len(result.Links),
		"images", len(result.Images),
	)

	for _, link := range result.Links {
		if !crawler.IsCheckable(link) {
			continue
		}

		status, seen := st.checked[link]
		if !seen {
			status = st.validator.Check(ctx, link)
			st.checked[link] = status
		}

		switch crawler.Classify(status) {
		case crawler.OutcomeIssue:
			st.issues.Add(model.Issue{
				Kind:       model.KindBrokenLink,
				URL:        link,
				PageURL:    entry.URL,
				StatusCode: status,
			})
		case crawler.OutcomeHealthy:
			st.frontier.Offer(link, entry.Depth+1)
		}
	}

	for _, img := range result.Images {
		if issue, broken := st.images.CheckImage(ctx, entry.URL, img.Src, !img.Loaded); broken {
			st.issues.Add(issue)
		}
	}
	return nil
}
