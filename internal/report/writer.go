package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/sitehealth/internal/model"
)

// Output formats accepted by NewWriter.
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatTable    = "table"
	FormatJSON     = "json"
)

// ErrUnknownFormat is returned by NewWriter for an unsupported format.
var ErrUnknownFormat = errors.New("unknown report format")

// Report is the data every writer renders: one scan of one site.
type Report struct {
	Site   *model.Site
	Scan   *model.Scan
	Issues []model.Issue
}

// Writer defines the interface for report output.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files or stdout with the same API.
type Writer interface {
	Write(r *Report) error
}

// NewWriter returns the writer for format.
func NewWriter(format string, output io.Writer) (Writer, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return NewCSVWriter(output), nil
	case FormatMarkdown, "md":
		return NewMarkdownWriter(output), nil
	case FormatTable:
		return NewTableWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	default:
		return nil, fmt.Errorf("%w: %q (use csv, markdown, table or json)", ErrUnknownFormat, format)
	}
}

// MultiWriter writes to multiple Writers in order and stops at the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
func (m *MultiWriter) Write(r *Report) error {
	for _, w := range m.writers {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// KindLabel returns the export label of a kind, underscores replaced by
// spaces ("BROKEN_LINK" becomes "BROKEN LINK").
func KindLabel(kind model.IssueKind) string {
	return strings.ReplaceAll(string(kind), "_", " ")
}

// KindTitle returns a display title for a kind ("Broken Link").
func KindTitle(kind model.IssueKind) string {
	return cases.Title(language.English).String(strings.ToLower(KindLabel(kind)))
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
