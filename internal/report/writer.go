package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sec-toolkit/dirscan-toolkit/internal/model"
)

// Format is an output format name.
type Format string

const (
	// FormatJSON writes a pretty-printed JSON array of records.
	FormatJSON Format = "json"

	// FormatSARIF writes a SARIF 2.1.0 log.
	FormatSARIF Format = "sarif"

	// FormatMarkdown writes a Markdown report.
	FormatMarkdown Format = "markdown"
)

// ErrUnknownFormat is returned for a format name outside Formats().
var ErrUnknownFormat = errors.New("unknown output format")

// Formats returns the supported format names.
func Formats() []Format {
	return []Format{FormatJSON, FormatSARIF, FormatMarkdown}
}

// ParseFormat converts a case-insensitive name into a Format.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Writer defines the interface for report output.
// Implementations write scan results in various formats.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.ScanReport) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// NewWriter returns the writer for format. JSON output is pretty-printed
// with two-space indentation.
func NewWriter(format Format, output io.Writer, toolVersion string) (Writer, error) {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case FormatSARIF:
		return NewSARIFWriter(output, toolVersion), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// OutputPath adjusts the requested output path for format.
// A SARIF report requested under a ".json" name is written to ".sarif"
// instead, so the default output name works for every format.
func OutputPath(format Format, path string) string {
	if format == FormatSARIF && strings.HasSuffix(path, ".json") {
		return strings.TrimSuffix(path, ".json") + ".sarif"
	}
	return path
}

// WriteFile renders report in format and writes it to path (adjusted by
// OutputPath). Parent directories are created with 0750 and the file with
// 0600. It returns the path actually written.
//
// The report is rendered in memory first so a rendering error never leaves
// a truncated file behind.
func WriteFile(path string, format Format, report *model.ScanReport, toolVersion string) (string, error) {
	path = OutputPath(format, path)

	var buf bytes.Buffer
	w, err := NewWriter(format, &buf, toolVersion)
	if err != nil {
		return "", err
	}
	if _, err := w.Write(report); err != nil {
		return "", fmt.Errorf("failed to render %s report: %w", format, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// statusClass groups a status into "2xx", "3xx", ... or "error".
func statusClass(s model.Status) string {
	if s.IsError() {
		return "error"
	}
	return fmt.Sprintf("%dxx", int(s)/100)
}
