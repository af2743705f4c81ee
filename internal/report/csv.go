package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
)

// isoMillis matches the timestamp layout of the CSV export.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// csvRow is one exported issue.
type csvRow struct {
	Type        string `csv:"Type"`
	BrokenURL   string `csv:"Broken URL"`
	FoundOnPage string `csv:"Found On Page"`
	StatusCode  string `csv:"Status Code"`
	DetectedAt  string `csv:"Detected At"`
}

// CSVWriter outputs the issues of a scan as CSV, one row per issue.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the header row followed by every issue.
func (w *CSVWriter) Write(r *Report) error {
	rows := make([]csvRow, 0, len(r.Issues))
	for _, issue := range r.Issues {
		rows = append(rows, csvRow{
			Type:        KindLabel(issue.Kind),
			BrokenURL:   issue.URL,
			FoundOnPage: issue.PageURL,
			StatusCode:  strconv.Itoa(issue.StatusCode),
			DetectedAt:  issue.DetectedAt.UTC().Format(isoMillis),
		})
	}

	if err := gocsv.Marshal(&rows, w.output); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// ExportFileName returns the default file name of a CSV export,
// e.g. "sitehealth-example.com-20250102T030405Z.csv".
func ExportFileName(host string, at time.Time) string {
	return fmt.Sprintf("sitehealth-%s-%s.csv", host, at.UTC().Format("20060102T150405Z"))
}
