// Package report renders scan results.
//
// This package contains writers for different output formats:
//   - JSONWriter: the ordered list of {"url", "status"} records
//   - SARIFWriter: a SARIF 2.1.0 log with one result per record
//   - MarkdownWriter: a human-readable report for sharing
//   - SimpleWriter: the plain-text summary printed after a scan
//
// Design decision: We separate report writing from report data structures
// (which are in the model package). Adding an output format never touches
// the scanner or the history store.
//
// Writers implement the Writer interface. WriteFile picks the writer for a
// Format and takes care of the output path rules and file permissions.
package report
