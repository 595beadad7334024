// Package scan runs a word list against a target and collects one result per
// candidate path, in word-list order.
//
// The Orchestrator owns a single dispatch loop. For each path, in order, it
// waits for a rate-limit token, then for a concurrency slot, and only then
// starts the goroutine that performs the probe. The slot is released when the
// probe finishes, so at most Capacity probe goroutines exist at any instant no
// matter how long the word list is.
//
// Design decision: Probes never fail the batch. A failed probe is a result
// carrying model.StatusError; the only way Run returns an error is when its
// context is cancelled, typically by an interrupt signal.
package scan
