package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/sec-toolkit/dirscan-toolkit/internal/report"
)

// Default configuration values.
// These mirror the CLI defaults so that a Config built in code behaves the
// same as a bare `dirscan scan -u <target>` invocation.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "dirscan"

	// DefaultWordList is the word list read when --wordlist is not given.
	DefaultWordList = "default.txt"

	// DefaultWorkers is the number of probes allowed in flight at once.
	DefaultWorkers = 10

	// MaxWorkers is the upper bound for Workers. Higher values tend to
	// trip rate limiting on the target long before they improve throughput.
	MaxWorkers = 50

	// DefaultRateLimit is the number of requests issued per second.
	// Zero disables rate limiting.
	DefaultRateLimit = 100

	// DefaultMethod is HEAD because it is the cheapest probe. GET is needed
	// for duplicate suppression since HEAD responses carry no body.
	DefaultMethod = "HEAD"

	// DefaultFormat is the output format name.
	DefaultFormat = "json"

	// DefaultOutputPath is where the report is written.
	DefaultOutputPath = "out.json"

	// DefaultTimeout bounds each request, including reading the body.
	DefaultTimeout = 10 * time.Second

	// DefaultThreshold is the similarity ratio above which two bodies
	// are considered near-duplicates.
	DefaultThreshold = 0.9

	// DefaultLogDir is the directory that receives the per-run scan log.
	DefaultLogDir = "logs"

	// DefaultUserAgent identifies dirscan in HTTP requests.
	DefaultUserAgent = "dirscan/0.1.0"

	// DefaultMaxBodySize limits how much of a GET body is read for
	// duplicate detection.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap when --tor is used.
	DefaultTorStartupTimeout = 3 * time.Minute
)

// Config holds all configuration options for a scan.
// It is populated from CLI flags and the optional .dirscan file, then passed
// down explicitly; there is no global configuration state.
//
// Design decision: We keep a single flat struct like the rest of the CLI
// layer. Components never see Config directly; cmd/dirscan translates it
// into constructor arguments and options.
type Config struct {
	// BaseURL is the scheme+host(+optional path prefix) every candidate path
	// is appended to.
	BaseURL string

	// WordListPath is the file holding candidate paths, one per line.
	WordListPath string

	// Method is the HTTP method used for every probe. Validate normalizes it
	// to upper case.
	Method string

	// Workers is the maximum number of concurrent in-flight probes (1..50).
	Workers int

	// RateLimit is the maximum number of requests started per second.
	// Zero means unlimited.
	RateLimit int

	// OutputFormat is one of json, sarif or markdown.
	OutputFormat string

	// OutputPath is the report file. For sarif a trailing .json is replaced
	// with .sarif when the report is written.
	OutputPath string

	// Timeout bounds each individual request.
	Timeout time.Duration

	// Threshold is the near-duplicate similarity ratio in (0, 1].
	Threshold float64

	// MaxSamples caps the number of bodies kept for similarity comparison.
	// Zero keeps every distinct body. A cap evicts the oldest samples first
	// and lowers duplicate recall on long scans.
	MaxSamples int

	// Headers are extra request headers sent with every probe.
	Headers map[string]string

	// UserAgent is the User-Agent header. A User-Agent in Headers wins.
	UserAgent string

	// MaxBodySize is the maximum number of body bytes read per GET probe.
	MaxBodySize int64

	// Proxy is an optional SOCKS5 proxy in "host:port" form.
	Proxy string

	// UseTor starts an embedded Tor daemon and routes probes through it.
	// Mutually exclusive with Proxy.
	UseTor bool

	// TorStartupTimeout is the maximum time to wait for the embedded Tor
	// daemon. Only used when UseTor is set.
	TorStartupTimeout time.Duration

	// DropDuplicates removes duplicate-flagged records from the written
	// report. By default duplicates are kept and only marked in the log.
	DropDuplicates bool

	// LogDir is the directory for the timestamped scan log. Empty disables
	// the log file; lines still go to the console.
	LogDir string

	// SaveHistory records the run in the history database.
	SaveHistory bool

	// DBDir is the directory of the history database.
	// Defaults to the XDG data directory (~/.local/share/dirscan on Linux).
	DBDir string

	// Verbose enables debug-level diagnostics.
	Verbose bool

	// ConfigFilePath is an explicit .dirscan file path. When empty the
	// current directory and then the home directory are searched.
	ConfigFilePath string

	// Profiles holds the per-target settings loaded from the config file.
	Profiles *File
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because most defaults are non-zero (workers, rate, timeout).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		WordListPath:      DefaultWordList,
		Method:            DefaultMethod,
		Workers:           DefaultWorkers,
		RateLimit:         DefaultRateLimit,
		OutputFormat:      DefaultFormat,
		OutputPath:        DefaultOutputPath,
		Timeout:           DefaultTimeout,
		Threshold:         DefaultThreshold,
		Headers:           make(map[string]string),
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		TorStartupTimeout: DefaultTorStartupTimeout,
		LogDir:            DefaultLogDir,
		SaveHistory:       true,
		DBDir:             XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for dirscan.
// On Linux: ~/.local/share/dirscan
// On macOS: ~/Library/Application Support/dirscan
// On Windows: %LOCALAPPDATA%\dirscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for dirscan.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and normalizes Method (upper case) and
// OutputFormat (lower case). It returns the first problem found as one of
// the sentinel errors in errors.go.
//
// Design decision: We validate once after flag parsing, before the word
// list is read or any request is scheduled, so a bad method or worker count
// never results in a partial scan.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return ErrNoTarget
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidTarget
	}

	if strings.TrimSpace(c.WordListPath) == "" {
		return ErrNoWordList
	}

	method := strings.ToUpper(strings.TrimSpace(c.Method))
	if method != "GET" && method != "HEAD" {
		return ErrInvalidMethod
	}
	c.Method = method

	if c.Workers < 1 || c.Workers > MaxWorkers {
		return ErrInvalidWorkers
	}

	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}

	format, err := report.ParseFormat(c.OutputFormat)
	if err != nil {
		return ErrInvalidFormat
	}
	c.OutputFormat = string(format)

	if strings.TrimSpace(c.OutputPath) == "" {
		return ErrNoOutputPath
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Threshold <= 0 || c.Threshold > 1 {
		return ErrInvalidThreshold
	}

	if c.MaxSamples < 0 {
		return ErrInvalidMaxSamples
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.Proxy != "" && c.UseTor {
		return ErrConflictingProxy
	}

	return nil
}
