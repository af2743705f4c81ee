package report

import (
	"fmt"
	"io"

	"github.com/rodaine/table"
)

// TableWriter outputs aligned text tables for terminal display.
type TableWriter struct {
	baseWriter
}

// NewTableWriter creates a TableWriter that outputs to the given writer.
func NewTableWriter(output io.Writer) *TableWriter {
	return &TableWriter{baseWriter: newBaseWriter(output)}
}

// Write prints a short scan header followed by one row per issue.
func (w *TableWriter) Write(r *Report) error {
	if r.Site != nil {
		if _, err := fmt.Fprintf(w.output, "Site:   %s\n", r.Site.URL); err != nil {
			return err
		}
	}
	if r.Scan != nil {
		if _, err := fmt.Fprintf(w.output, "Scan:   %s (%s, started %s)\n",
			r.Scan.ID, r.Scan.Status, r.Scan.StartedAt.Format(timeLayout)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w.output, "Issues: %d\n\n", len(r.Issues)); err != nil {
		return err
	}
	if len(r.Issues) == 0 {
		return nil
	}

	tbl := table.New("Type", "Broken URL", "Found On Page", "Status").WithWriter(w.output)
	for _, issue := range r.Issues {
		tbl.AddRow(KindLabel(issue.Kind), issue.URL, issue.PageURL, issue.StatusCode)
	}
	tbl.Print()
	return nil
}
