package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/nao1215/sitehealth/internal/model"
)

// DefaultConcurrency is the number of scans that may run at the same time.
const DefaultConcurrency = 10

// Runner runs one scan. It is implemented by scan.Controller.
type Runner interface {
	Run(ctx context.Context, siteID, seedURL string) (*model.Scan, error)
}

// Result describes a finished request.
type Result struct {
	SiteID string
	URL    string

	// Scan is the scan the request ran or joined; nil if none was created.
	Scan *model.Scan

	// Err is the scan error, or a recovered panic.
	Err error

	// Shared is true when the request shared a scan with another request.
	Shared bool
}

// Dispatcher runs submitted scans on a bounded pool.
type Dispatcher struct {
	ctx         context.Context
	runner      Runner
	concurrency int
	logger      *slog.Logger
	onDone      func(Result)

	group   errgroup.Group
	lease   singleflight.Group
	pending sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent scans.
// Default is 10 if not specified.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithOnDone registers a callback invoked after every request finishes.
// It is called from the worker goroutine and must be safe for concurrent use.
func WithOnDone(fn func(Result)) Option {
	return func(d *Dispatcher) {
		d.onDone = fn
	}
}

// New creates a Dispatcher. Scans run with ctx; canceling it interrupts them.
func New(ctx context.Context, runner Runner, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		ctx:         ctx,
		runner:      runner,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	d.group.SetLimit(d.concurrency)
	return d
}

// Submit schedules a scan of seedURL for siteID and returns immediately.
// Failures are logged and never reported to the caller.
func (d *Dispatcher) Submit(siteID, seedURL string) {
	d.pending.Add(1)
	go func() {
		defer d.pending.Done()
		// Go blocks while the pool is full; Submit must not.
		d.group.Go(func() error {
			d.run(siteID, seedURL)
			return nil
		})
	}()
}

// SubmitAll submits every site in order.
func (d *Dispatcher) SubmitAll(sites []*model.Site) {
	for _, site := range sites {
		d.Submit(site.ID, site.URL)
	}
}

// Wait blocks until every submitted scan has finished.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
	_ = d.group.Wait() // tasks never return errors
}

// run executes one request inside its own error boundary.
func (d *Dispatcher) run(siteID, seedURL string) {
	logger := d.logger.With("site", siteID)
	result := Result{SiteID: siteID, URL: seedURL}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("recovered from panic in scan task", "panic", r)
			result.Err = fmt.Errorf("scan task panicked: %v", r)
		}
		if d.onDone != nil {
			d.onDone(result)
		}
	}()

	v, err, shared := d.lease.Do(siteID, func() (any, error) {
		return d.runner.Run(d.ctx, siteID, seedURL)
	})
	result.Err = err
	result.Shared = shared
	if scan, ok := v.(*model.Scan); ok {
		result.Scan = scan
	}

	if err != nil {
		logger.Warn("scan failed", "url", seedURL, "error", err, "elapsed", time.Since(start))
		return
	}
	logger.Info("scan finished", "url", seedURL, "shared", shared, "elapsed", time.Since(start))
}
