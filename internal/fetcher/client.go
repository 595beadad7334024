package fetcher

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient creates the direct (no proxy) HTTP client used for probes.
//
// The client never follows redirects: a candidate path answering 301 or 302
// is reported with that status instead of the status of the redirect target.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 50,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: timeout,
	}

	return &http.Client{
		Transport:     transport,
		Timeout:       timeout,
		CheckRedirect: NoRedirect,
	}
}

// NoRedirect is an http.Client CheckRedirect policy that returns the first
// response as is.
func NoRedirect(_ *http.Request, _ []*http.Request) error {
	return http.ErrUseLastResponse
}
