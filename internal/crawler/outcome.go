package crawler

import "github.com/nao1215/sitehealth/internal/model"

// Outcome is the classification of one validated resource.
// Engine failures are not outcomes; they are returned as errors by the scan controller.
type Outcome int

const (
	// OutcomeHealthy means the resource answered with a non-error status.
	OutcomeHealthy Outcome = iota

	// OutcomeIssue means the resource is broken and must be recorded.
	OutcomeIssue

	// OutcomeIgnore means the target is not an http(s) resource and was not checked.
	OutcomeIgnore
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeHealthy:
		return "healthy"
	case OutcomeIssue:
		return "issue"
	case OutcomeIgnore:
		return "ignore"
	default:
		return "unknown"
	}
}

// Classify maps an observed status code to an outcome.
// Status 0 (no response) and every status >= 400 are issues.
func Classify(statusCode int) Outcome {
	if model.IsBrokenStatus(statusCode) {
		return OutcomeIssue
	}
	return OutcomeHealthy
}
