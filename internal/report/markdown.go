package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/sitehealth/internal/model"
)

// timeLayout is the human-readable timestamp layout of Markdown and table output.
const timeLayout = "2006-01-02 15:04:05 MST"

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides type-safe tables, lists and GitHub-flavored
// alerts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(r *Report) error {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, r)
	w.writeSummary(md, r)
	w.writeIssues(md, r)
	w.writeFooter(md)

	return md.Build()
}

// writeHeader writes the report header with scan information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, r *Report) {
	md.H1("Site Health Report")
	md.PlainText("")

	rows := [][]string{}
	if r.Site != nil {
		rows = append(rows, []string{"Site", r.Site.URL})
	}
	if r.Scan != nil {
		rows = append(rows,
			[]string{"Scan ID", "`" + r.Scan.ID + "`"},
			[]string{"Started", r.Scan.StartedAt.Format(timeLayout)},
			[]string{"Status", statusText(r.Scan.Status)},
		)
		if r.Scan.CompletedAt != nil {
			rows = append(rows, []string{"Duration", r.Scan.Duration().String()})
		}
	}
	rows = append(rows, []string{"Issues", strconv.Itoa(len(r.Issues))})

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// statusText returns the decorated scan status.
func statusText(status model.ScanStatus) string {
	switch status {
	case model.ScanCompleted:
		return "✅ Completed"
	case model.ScanFailed:
		return "❌ Failed"
	case model.ScanProcessing:
		return "⏳ Processing"
	default:
		return string(status)
	}
}

// writeSummary writes the per-kind summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, r *Report) {
	md.H2("Summary")
	md.PlainText("")

	counts := model.CountByKind(r.Issues)
	rows := make([][]string, 0, len(model.AllKinds())+1)
	for _, kind := range model.AllKinds() {
		rows = append(rows, []string{KindTitle(kind), strconv.Itoa(counts[kind])})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(len(r.Issues)) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Kind", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(r.Issues) > 0 {
		w.writePieChart(md, counts)
	}

	switch {
	case r.Scan != nil && r.Scan.Status == model.ScanFailed:
		md.Cautionf("The scan failed before the site was fully crawled. %d issue(s) were recorded.", len(r.Issues))
	case len(r.Issues) > 0:
		md.Warningf("%d broken resource(s) found.", len(r.Issues))
	default:
		md.Tip("No broken links or images found.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the issue kinds.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts map[model.IssueKind]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Issues by Kind"),
		piechart.WithShowData(true),
	)
	for _, kind := range model.AllKinds() {
		if n := counts[kind]; n > 0 {
			chart.LabelAndIntValue(KindTitle(kind), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeIssues writes one section per kind with a table of its issues.
func (w *MarkdownWriter) writeIssues(md *markdown.Markdown, r *Report) {
	md.H2("Issues")
	md.PlainText("")

	if len(r.Issues) == 0 {
		md.PlainText("No issues detected.")
		md.PlainText("")
		return
	}

	for _, kind := range model.AllKinds() {
		var rows [][]string
		for _, issue := range r.Issues {
			if issue.Kind != kind {
				continue
			}
			rows = append(rows, []string{
				truncateString(issue.URL, 80),
				truncateString(issue.PageURL, 60),
				strconv.Itoa(issue.StatusCode),
			})
		}
		if len(rows) == 0 {
			continue
		}

		md.H3(KindTitle(kind))
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Broken URL", "Found On Page", "Status Code"},
			Rows:   rows,
		})
		md.PlainText("")

		info := model.GetKindInfo(kind)
		md.Details("Why it matters", info.Impact+"\n\n"+info.Recommendation)
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [sitehealth](https://github.com/nao1215/sitehealth)*")
}
