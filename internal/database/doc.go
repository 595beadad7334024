// Package database provides SQLite-based storage for scan history.
//
// This package implements the HistoryDB, which stores:
//   - One row per scan run with its parameters and totals
//   - One row per probe result, keyed by run and word-list position
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. WAL mode lets the history command read while a scan writes
//
// Runs are identified by UUIDs so a SARIF log and its history entry can be
// matched through the SARIF automationDetails.guid.
package database
