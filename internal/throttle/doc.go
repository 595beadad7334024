// Package throttle provides the two admission controls applied to every probe.
//
//   - Limiter bounds how many requests are issued per second using a token
//     bucket refilled once per second.
//   - Gate bounds how many requests are in flight at the same time.
//
// The two are independent: a probe first waits for a rate token, then for a
// concurrency permit, and releases the permit when its request finishes.
package throttle
