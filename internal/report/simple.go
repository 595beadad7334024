package report

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/sec-toolkit/dirscan-toolkit/internal/model"
)

// SimpleWriter outputs the plain-text summary shown in the terminal once a
// scan has finished.
type SimpleWriter struct {
	baseWriter

	// verbose lists every result instead of only the interesting ones.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists every result, including 404s, errors and duplicates.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(report *model.ScanReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report.Summary())
	w.writePaths(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         DIRSCAN SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Target:   %s\n", report.Target)
	fmt.Fprintf(sb, "Method:   %s\n", report.Method)
	fmt.Fprintf(sb, "Started:  %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration: %s\n", report.Duration())
	sb.WriteString("\n")
}

// writeSummary writes counts per status code.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, summary model.Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("STATUS SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	codes := make([]int, 0, len(summary.ByStatus))
	for code := range summary.ByStatus {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	for _, code := range codes {
		fmt.Fprintf(sb, "  %-10d %d\n", code, summary.ByStatus[code])
	}
	fmt.Fprintf(sb, "  %-10s %d\n", "error", summary.Errors)
	fmt.Fprintf(sb, "  %-10s %d\n", "duplicate", summary.Duplicates)
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  TOTAL:     %d probes\n", summary.Total)
	sb.WriteString("\n")
}

// writePaths lists found paths. Without verbose only non-duplicate, non-error
// results whose status is not 404 are shown.
func (w *SimpleWriter) writePaths(sb *strings.Builder, report *model.ScanReport) {
	var shown []model.Result
	for _, r := range report.Results {
		if w.verbose || interesting(r) {
			shown = append(shown, r)
		}
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FOUND PATHS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(shown) == 0 {
		sb.WriteString("  No paths found\n\n")
		return
	}
	for _, r := range shown {
		marker := "[+]"
		switch {
		case r.Status.IsError():
			marker = "[!]"
		case r.Duplicate:
			marker = "[=]"
		}
		fmt.Fprintf(sb, "  %s %-5s %s\n", marker, r.Status, r.URL)
	}
	sb.WriteString("\n")
}

func interesting(r model.Result) bool {
	return !r.Duplicate && !r.Status.IsError() && r.Status != 404
}
