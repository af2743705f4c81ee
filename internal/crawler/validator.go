package crawler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/nao1215/sitehealth/internal/model"
)

const (
	// DefaultProbeTimeout bounds each HEAD or GET probe.
	DefaultProbeTimeout = 25 * time.Second

	// maxDrainBytes is how much of a GET body is read before closing, so the
	// connection can be reused without downloading large files.
	maxDrainBytes = 64 * 1024
)

// Validator determines whether a resource URL is reachable.
//
// The preferred probe is HEAD. Some origins reject or mishandle that verb, so
// a HEAD answer of 404, 405 or no response at all is confirmed with a GET,
// and the GET result is authoritative. Any transport error maps to
// model.StatusNetworkFailure.
type Validator struct {
	client  *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	logger  *slog.Logger
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithProbeTimeout sets the timeout applied to each individual probe.
func WithProbeTimeout(d time.Duration) ValidatorOption {
	return func(v *Validator) {
		v.timeout = d
	}
}

// WithRateLimit limits probes to rps requests per second.
// Zero or a negative value disables limiting.
func WithRateLimit(rps float64) ValidatorOption {
	return func(v *Validator) {
		if rps <= 0 {
			v.limiter = nil
			return
		}
		v.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithValidatorLogger sets the logger for probe diagnostics.
func WithValidatorLogger(logger *slog.Logger) ValidatorOption {
	return func(v *Validator) {
		v.logger = logger
	}
}

// NewValidator creates a Validator that probes through client.
func NewValidator(client *http.Client, opts ...ValidatorOption) *Validator {
	v := &Validator{
		client:  client,
		timeout: DefaultProbeTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks a link target and classifies it.
// Non-http(s) targets are OutcomeIgnore and are never requested.
func (v *Validator) Validate(ctx context.Context, rawURL string) (Outcome, int) {
	if !IsCheckable(rawURL) {
		return OutcomeIgnore, 0
	}
	status := v.Check(ctx, rawURL)
	return Classify(status), status
}

// Check returns the authoritative status code of rawURL.
func (v *Validator) Check(ctx context.Context, rawURL string) int {
	status := v.probe(ctx, http.MethodHead, rawURL)
	if needsConfirmation(status) {
		status = v.probe(ctx, http.MethodGet, rawURL)
	}
	return status
}

// Confirm fetches rawURL with GET and returns its status code.
func (v *Validator) Confirm(ctx context.Context, rawURL string) int {
	return v.probe(ctx, http.MethodGet, rawURL)
}

// needsConfirmation reports whether a HEAD answer must be re-checked with GET.
func needsConfirmation(status int) bool {
	return status == http.StatusNotFound ||
		status == http.StatusMethodNotAllowed ||
		status == model.StatusNetworkFailure
}

// probe issues one request and returns its status, or StatusNetworkFailure
// when no response arrived within the probe timeout.
func (v *Validator) probe(ctx context.Context, method, rawURL string) int {
	if v.limiter != nil {
		if err := v.limiter.Wait(ctx); err != nil {
			return model.StatusNetworkFailure
		}
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		v.logger.Debug("invalid probe request", "method", method, "url", rawURL, "error", err)
		return model.StatusNetworkFailure
	}

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Debug("probe failed", "method", method, "url", rawURL, "error", err)
		return model.StatusNetworkFailure
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	v.logger.Debug("probe", "method", method, "url", rawURL, "status", resp.StatusCode)
	return resp.StatusCode
}
