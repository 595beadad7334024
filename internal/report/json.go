package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/sec-toolkit/dirscan-toolkit/internal/model"
)

// JSONWriter outputs the result list as a JSON array of {"url", "status"}
// records in word-list order.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because the records are flat and the encoder's
// SetEscapeHTML switch is all the control the output needs.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
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
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report's results in JSON format.
func (w *JSONWriter) Write(report *model.ScanReport) (int, error) {
	results := report.Results
	if results == nil {
		results = []model.Result{}
	}
	return w.writeJSON(results)
}

// writeJSON encodes v and writes it to the output with a trailing newline.
// URLs are written verbatim: "&", "<" and ">" are not escaped.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.indent {
		enc.SetIndent(w.indentPrefix, w.indentString)
	}

	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}

// JSONReport is a stored run together with its summary and the version of
// the tool that wrote it. The history command prints it.
type JSONReport struct {
	// Version is the dirscan version that generated this output.
	Version string `json:"version"`

	// Report is the full scan run.
	Report *model.ScanReport `json:"report"`

	// Summary is the per-status breakdown of the run.
	Summary model.Summary `json:"summary"`
}

// NewJSONReport creates a JSONReport wrapper with version information.
func NewJSONReport(report *model.ScanReport, version string) *JSONReport {
	return &JSONReport{
		Version: version,
		Report:  report,
		Summary: report.Summary(),
	}
}

// FullJSONWriter outputs complete runs with metadata wrapper.
type FullJSONWriter struct {
	*JSONWriter

	// version is the dirscan version string.
	version string
}

// NewFullJSONWriter creates a writer for complete runs with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the full run wrapped with metadata.
func (w *FullJSONWriter) Write(report *model.ScanReport) (int, error) {
	return w.writeJSON(NewJSONReport(report, w.version))
}
