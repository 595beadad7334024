package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sec-toolkit/dirscan-toolkit/internal/dedup"
	"github.com/sec-toolkit/dirscan-toolkit/internal/model"
)

// DefaultMaxBodySize bounds how much of a GET response body is read.
const DefaultMaxBodySize int64 = 5 * 1024 * 1024

// DefaultUserAgent is sent when no User-Agent is configured.
const DefaultUserAgent = "dirscan/0.1.0"

// LineLogger receives one human-readable line per probe.
// *log.ScanLogger satisfies it.
type LineLogger interface {
	Info(msg string)
}

type discardLogger struct{}

func (discardLogger) Info(string) {}

// Fetcher probes candidate paths under one base URL.
// It is safe for concurrent use as long as the injected client is.
type Fetcher struct {
	client *http.Client

	// baseURL has its trailing slashes removed.
	baseURL string

	method      string
	headers     map[string]string
	userAgent   string
	maxBodySize int64

	// dedup classifies GET bodies. Nil for HEAD.
	dedup *dedup.Deduplicator

	lines LineLogger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHeaders sets extra request headers sent with every probe.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		f.headers = headers
	}
}

// WithUserAgent sets the User-Agent header. An empty value keeps the default.
// A User-Agent given through WithHeaders takes precedence.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the maximum number of body bytes read per GET probe.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithDeduplicator sets the deduplicator shared by all GET probes of a scan.
func WithDeduplicator(d *dedup.Deduplicator) Option {
	return func(f *Fetcher) {
		f.dedup = d
	}
}

// WithLineLogger sets where probe lines are written.
func WithLineLogger(l LineLogger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.lines = l
		}
	}
}

// New creates a Fetcher for baseURL using client.
// The method is case-insensitive and must be GET or HEAD. A GET fetcher
// without WithDeduplicator gets its own deduplicator with default settings.
func New(client *http.Client, baseURL, method string, opts ...Option) (*Fetcher, error) {
	method = strings.ToUpper(method)
	if method != http.MethodGet && method != http.MethodHead {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	f := &Fetcher{
		client:      client,
		baseURL:     strings.TrimRight(baseURL, "/"),
		method:      method,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		lines:       discardLogger{},
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.method == http.MethodHead {
		f.dedup = nil
	} else if f.dedup == nil {
		f.dedup = dedup.New()
	}
	return f, nil
}

// Method returns the upper-cased request method.
func (f *Fetcher) Method() string {
	return f.method
}

// URL returns the full URL probed for path.
func (f *Fetcher) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return f.baseURL + path
}

// Fetch probes one path and returns its result.
// It never returns an error: transport failures become StatusError results.
func (f *Fetcher) Fetch(ctx context.Context, path string) model.Result {
	target := f.URL(path)

	status, body, err := f.do(ctx, target)
	if err != nil {
		f.lines.Info(fmt.Sprintf("error %s: %v", target, err))
		return model.NewErrorResult(target, err)
	}

	result := model.Result{URL: target, Status: model.Status(status)}
	if f.dedup != nil && f.dedup.IsDuplicate(body) {
		result.Duplicate = true
		f.lines.Info(fmt.Sprintf("[DEDUP] %d %s", status, target))
		return result
	}

	f.lines.Info(fmt.Sprintf("%d %s", status, target))
	return result
}

// do sends the request and returns the status code and, for GET, the body.
// A failure while reading the body counts as a transport failure.
func (f *Fetcher) do(ctx context.Context, target string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, f.method, target, nil)
	if err != nil {
		return 0, nil, err
	}

	req.Header.Set("User-Agent", f.userAgent)
	for name, value := range f.headers {
		req.Header.Set(name, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	if f.method == http.MethodHead {
		return resp.StatusCode, nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read body: %w", err)
	}
	return resp.StatusCode, body, nil
}
