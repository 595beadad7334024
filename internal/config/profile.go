package config

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Flag names that a profile can fill in. ApplyProfile leaves a field alone
// when the corresponding flag was set on the command line.
const (
	FlagRate      = "rate"
	FlagThreads   = "threads"
	FlagUserAgent = "user-agent"
)

// Profile holds per-target scan settings from the .dirscan file.
type Profile struct {
	// Headers are extra request headers, e.g. an Authorization token or a
	// session cookie for a staging host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the default User-Agent.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Rate overrides the requests-per-second limit. A pointer so that an
	// explicit 0 (unlimited) can be told apart from "not set".
	Rate *int `yaml:"rate,omitempty"`

	// Threads overrides the worker count. Zero means not set.
	Threads int `yaml:"threads,omitempty"`
}

// File represents the structure of the .dirscan configuration file.
type File struct {
	// Defaults apply to every target unless overridden below.
	Defaults Profile `yaml:"defaults,omitempty"`

	// Targets maps a base URL (e.g. "https://staging.example.com") or a bare
	// host ("staging.example.com") to its profile.
	Targets map[string]Profile `yaml:"targets,omitempty"`
}

// Validate checks every profile in the file.
func (cf *File) Validate() error {
	if err := cf.Defaults.validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	for name, p := range cf.Targets {
		if err := p.validate(); err != nil {
			return fmt.Errorf("target %q: %w", name, err)
		}
	}
	return nil
}

func (p Profile) validate() error {
	if p.Rate != nil && *p.Rate < 0 {
		return fmt.Errorf("%w: rate must be non-negative", ErrInvalidProfile)
	}
	if p.Threads < 0 || p.Threads > MaxWorkers {
		return fmt.Errorf("%w: threads must be between 1 and %d", ErrInvalidProfile, MaxWorkers)
	}
	return nil
}

// GetProfile returns the profile for a base URL, merged over the defaults.
// An entry keyed by the full base URL (trailing slash ignored) takes
// precedence over one keyed by the host.
func (cf *File) GetProfile(baseURL string) Profile {
	result := cf.Defaults
	result.Headers = cloneHeaders(cf.Defaults.Headers)

	p, ok := cf.lookup(baseURL)
	if !ok {
		return result
	}

	if p.UserAgent != "" {
		result.UserAgent = p.UserAgent
	}
	if p.Rate != nil {
		rate := *p.Rate
		result.Rate = &rate
	}
	if p.Threads != 0 {
		result.Threads = p.Threads
	}
	if len(p.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(p.Headers))
		}
		for k, v := range p.Headers {
			result.Headers[k] = v
		}
	}

	return result
}

func (cf *File) lookup(baseURL string) (Profile, bool) {
	if p, ok := cf.Targets[strings.TrimRight(baseURL, "/")]; ok {
		return p, true
	}
	if p, ok := cf.Targets[baseURL]; ok {
		return p, true
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return Profile{}, false
	}
	p, ok := cf.Targets[u.Host]
	return p, ok
}

// ApplyProfile copies profile values into c. changed reports whether a flag
// was given on the command line; such fields are not touched. Headers are
// merged, and a header already present in c (case-insensitive) wins.
func (c *Config) ApplyProfile(p Profile, changed func(flag string) bool) {
	if p.Rate != nil && !changed(FlagRate) {
		c.RateLimit = *p.Rate
	}
	if p.Threads != 0 && !changed(FlagThreads) {
		c.Workers = p.Threads
	}
	if p.UserAgent != "" && !changed(FlagUserAgent) {
		c.UserAgent = p.UserAgent
	}

	if len(p.Headers) == 0 {
		return
	}
	if c.Headers == nil {
		c.Headers = make(map[string]string, len(p.Headers))
	}
	present := make(map[string]bool, len(c.Headers))
	for k := range c.Headers {
		present[http.CanonicalHeaderKey(k)] = true
	}
	for k, v := range p.Headers {
		if !present[http.CanonicalHeaderKey(k)] {
			c.Headers[k] = v
		}
	}
}

// ParseHeaders converts repeated "Name: value" flag values into a map.
func ParseHeaders(values []string) (map[string]string, error) {
	headers := make(map[string]string, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" || strings.ContainsAny(name, " \t") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidHeader, v)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

func cloneHeaders(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
