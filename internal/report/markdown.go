package report

import (
	"io"
	"slices"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/sec-toolkit/dirscan-toolkit/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation, which gives us tables, alerts and mermaid charts without
// hand-escaping.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ScanReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	summary := report.Summary()

	w.writeHeader(md, report)
	w.writeSummary(md, report, summary)
	w.writeResults(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ScanReport) {
	md.H1("Dirscan Report")
	md.PlainText("")

	rows := [][]string{
		{"Target", "`" + report.Target + "`"},
		{"Method", report.Method},
		{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Duration", report.Duration().String()},
		{"Workers", strconv.Itoa(report.Workers)},
		{"Rate Limit", rateText(report.RateLimit)},
	}
	if report.WordList != "" {
		rows = append(rows, []string{"Word List", "`" + report.WordList + "`"})
	}
	if report.RunID != "" {
		rows = append(rows, []string{"Run ID", "`" + report.RunID + "`"})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func rateText(rate int) string {
	if rate == 0 {
		return "unlimited"
	}
	return strconv.Itoa(rate) + " req/s"
}

// writeSummary writes the per-status counts, a distribution chart and an alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.ScanReport, summary model.Summary) {
	md.H2("Status Summary")
	md.PlainText("")

	codes := make([]int, 0, len(summary.ByStatus))
	for code := range summary.ByStatus {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	rows := make([][]string, 0, len(codes)+3)
	for _, code := range codes {
		rows = append(rows, []string{strconv.Itoa(code), strconv.Itoa(summary.ByStatus[code])})
	}
	rows = append(rows,
		[]string{"error", strconv.Itoa(summary.Errors)},
		[]string{"duplicates", strconv.Itoa(summary.Duplicates)},
		[]string{"**Total**", "**" + strconv.Itoa(summary.Total) + "**"},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if summary.Total > 0 {
		w.writePieChart(md, report)
	}
	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of status classes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.ScanReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Status Distribution"),
		piechart.WithShowData(true),
	)

	counts := make(map[string]uint64)
	for _, r := range report.Results {
		counts[statusClass(r.Status)]++
	}
	for _, class := range []string{"1xx", "2xx", "3xx", "4xx", "5xx", "error"} {
		if counts[class] > 0 {
			chart.LabelAndIntValue(class, counts[class])
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert highlights paths that answered with a success status.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.ScanReport) {
	found := len(reachable(report.Results))
	switch {
	case found > 0:
		md.Warningf("%d path(s) answered with a 2xx status and a unique body.", found)
	case len(report.Results) == 0:
		md.Note("The word list was empty.")
	default:
		md.Tip("No reachable paths found.")
	}
	md.PlainText("")
}

// writeResults writes every record in word-list order.
func (w *MarkdownWriter) writeResults(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Results")
	md.PlainText("")

	if len(report.Results) == 0 {
		md.PlainText("No paths were probed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Results))
	for i, r := range report.Results {
		dup := ""
		if r.Duplicate {
			dup = "yes"
		}
		rows[i] = []string{strconv.Itoa(i + 1), "`" + r.URL + "`", r.Status.String(), dup}
	}

	md.Table(markdown.TableSet{
		Header: []string{"#", "URL", "Status", "Duplicate"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by dirscan*")
}

// reachable returns the non-duplicate results with a 2xx status.
func reachable(results []model.Result) []model.Result {
	var out []model.Result
	for _, r := range results {
		if !r.Duplicate && r.Status >= 200 && r.Status < 300 {
			out = append(out, r)
		}
	}
	return out
}
