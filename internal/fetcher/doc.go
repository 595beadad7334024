// Package fetcher issues the HTTP probe for one candidate path.
//
// A Fetcher joins the base URL with a path, sends a GET or HEAD request and
// turns the outcome into a model.Result. Transport failures never escape as
// errors: they become a result carrying model.StatusError, so one bad path
// cannot disturb the rest of a scan.
//
// For GET probes the body is read (bounded by the configured maximum) and
// classified by a dedup.Deduplicator. HEAD probes never read a body and are
// never duplicates.
//
// Redirects are not followed; the 3xx status is the result.
//
// # Usage
//
//	client := fetcher.NewHTTPClient(10 * time.Second)
//	f, err := fetcher.New(client, "http://example.com", http.MethodGet,
//		fetcher.WithUserAgent("dirscan/0.1.0"))
//	result := f.Fetch(ctx, "/admin")
package fetcher
