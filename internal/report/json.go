package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/nao1215/sitehealth/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because it is sufficient for a document this small.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type jsonIssue struct {
	Type           model.IssueKind `json:"type"`
	URL            string          `json:"url"`
	PageURL        string          `json:"page_url"`
	StatusCode     int             `json:"status_code"`
	DetectedAt     time.Time       `json:"detected_at"`
	Recommendation string          `json:"recommendation,omitempty"`
}

type jsonReport struct {
	SiteID      string           `json:"site_id"`
	SiteURL     string           `json:"site_url"`
	ScanID      string           `json:"scan_id"`
	Status      model.ScanStatus `json:"status"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Counts      map[string]int   `json:"counts"`
	Issues      []jsonIssue      `json:"issues"`
}

// Write outputs the report as one JSON document.
func (w *JSONWriter) Write(r *Report) error {
	doc := jsonReport{
		Counts: make(map[string]int),
		Issues: make([]jsonIssue, 0, len(r.Issues)),
	}
	if r.Site != nil {
		doc.SiteID = r.Site.ID
		doc.SiteURL = r.Site.URL
	}
	if r.Scan != nil {
		doc.ScanID = r.Scan.ID
		doc.Status = r.Scan.Status
		doc.StartedAt = r.Scan.StartedAt
		doc.CompletedAt = r.Scan.CompletedAt
	}
	for kind, n := range model.CountByKind(r.Issues) {
		doc.Counts[string(kind)] = n
	}
	for _, issue := range r.Issues {
		doc.Issues = append(doc.Issues, jsonIssue{
			Type:           issue.Kind,
			URL:            issue.URL,
			PageURL:        issue.PageURL,
			StatusCode:     issue.StatusCode,
			DetectedAt:     issue.DetectedAt,
			Recommendation: model.GetKindInfo(issue.Kind).Recommendation,
		})
	}

	encoder := json.NewEncoder(w.output)
	if w.indent {
		encoder.SetIndent(w.indentPrefix, w.indentString)
	}
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return nil
}
