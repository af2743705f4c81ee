package report

import (
	"fmt"
	"io"

	"github.com/rodaine/table"

	"github.com/nao1215/sitehealth/internal/model"
)

// Comparison is the difference between the issues of two scans of a site.
type Comparison struct {
	// New issues appear only in the current scan.
	New []model.Issue

	// Resolved issues appear only in the previous scan.
	Resolved []model.Issue

	// Persisting issues appear in both scans (current scan values).
	Persisting []model.Issue
}

type compareKey struct {
	kind model.IssueKind
	key  model.IssueKey
}

func keyOf(issue model.Issue) compareKey {
	return compareKey{kind: issue.Kind, key: issue.Key()}
}

// Compare diffs previous against current. Issues are matched by kind,
// resource URL and referring page; the status code is not compared.
func Compare(previous, current []model.Issue) Comparison {
	before := make(map[compareKey]bool, len(previous))
	for _, issue := range previous {
		before[keyOf(issue)] = true
	}
	after := make(map[compareKey]bool, len(current))
	for _, issue := range current {
		after[keyOf(issue)] = true
	}

	var c Comparison
	for _, issue := range current {
		if before[keyOf(issue)] {
			c.Persisting = append(c.Persisting, issue)
		} else {
			c.New = append(c.New, issue)
		}
	}
	for _, issue := range previous {
		if !after[keyOf(issue)] {
			c.Resolved = append(c.Resolved, issue)
		}
	}
	return c
}

// HasChanges reports whether any issue appeared or disappeared.
func (c Comparison) HasChanges() bool {
	return len(c.New) > 0 || len(c.Resolved) > 0
}

// Direction summarizes the comparison as "worsened", "improved" or "unchanged".
func (c Comparison) Direction() string {
	switch {
	case len(c.New) > len(c.Resolved):
		return "worsened"
	case len(c.New) < len(c.Resolved):
		return "improved"
	default:
		return "unchanged"
	}
}

// WriteComparison prints a comparison as a terminal table.
func WriteComparison(output io.Writer, c Comparison) error {
	if _, err := fmt.Fprintf(output, "New: %d  Resolved: %d  Persisting: %d  (%s)\n\n",
		len(c.New), len(c.Resolved), len(c.Persisting), c.Direction()); err != nil {
		return err
	}
	if !c.HasChanges() {
		_, err := fmt.Fprintln(output, "No changes since the previous scan.")
		return err
	}

	tbl := table.New("Change", "Type", "Broken URL", "Found On Page", "Status").WithWriter(output)
	for _, issue := range c.New {
		tbl.AddRow("+ new", KindLabel(issue.Kind), issue.URL, issue.PageURL, issue.StatusCode)
	}
	for _, issue := range c.Resolved {
		tbl.AddRow("- resolved", KindLabel(issue.Kind), issue.URL, issue.PageURL, issue.StatusCode)
	}
	tbl.Print()
	return nil
}
