// Package model defines the data structures shared by the scanner packages.
//
// This package contains the following main types:
//   - Status: An HTTP status code or the transport error sentinel
//   - Result: The outcome of probing one candidate path
//   - ScanReport: A complete run with its metadata and ordered results
//   - StatusChange: One difference between two runs of the same target
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The fetcher, scan, report and database packages all exchange
// these types, so centralizing them prevents import cycles.
package model
