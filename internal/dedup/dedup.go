package dedup

import (
	"sync"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultThreshold is the similarity above which a body is a near duplicate.
const DefaultThreshold = 0.9

// sample is a retained body. The matcher keeps the sample as its second
// sequence so its character index is built only once.
type sample struct {
	matcher *difflib.SequenceMatcher
}

// Deduplicator remembers the bodies seen during one scan.
// It is safe for concurrent use; the lookup and the insertion that follows
// it happen under one lock, so two goroutines delivering the same new body
// cannot both see it as new.
type Deduplicator struct {
	mu sync.Mutex

	threshold  float64
	maxSamples int

	seen    map[uint64]struct{}
	samples []sample
}

// Option configures a Deduplicator.
type Option func(*Deduplicator)

// WithThreshold sets the near-duplicate similarity threshold.
// Values outside (0, 1] are ignored.
func WithThreshold(t float64) Option {
	return func(d *Deduplicator) {
		if t > 0 && t <= 1 {
			d.threshold = t
		}
	}
}

// WithMaxSamples caps the number of retained samples; the oldest sample is
// evicted when the cap is exceeded. 0 (the default) keeps every sample.
// A cap trades dedup recall for bounded memory and comparison time.
func WithMaxSamples(n int) Option {
	return func(d *Deduplicator) {
		if n >= 0 {
			d.maxSamples = n
		}
	}
}

// New creates an empty Deduplicator.
func New(opts ...Option) *Deduplicator {
	d := &Deduplicator{
		threshold: DefaultThreshold,
		seen:      make(map[uint64]struct{}),
		samples:   make([]sample, 0),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// IsDuplicate reports whether body duplicates a body seen earlier.
// A body that is not a duplicate is remembered for later comparisons.
func (d *Deduplicator) IsDuplicate(body []byte) bool {
	digest := Digest(body)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[digest]; ok {
		return true
	}
	d.seen[digest] = struct{}{}

	text := chars(decode(body))
	for _, s := range d.samples {
		if d.similar(s.matcher, text) {
			return true
		}
	}

	d.retain(text)
	return false
}

// similar compares text against a retained sample. The quick ratios are upper
// bounds of the real ratio, so rejecting on them never changes the outcome.
func (d *Deduplicator) similar(m *difflib.SequenceMatcher, text []string) bool {
	m.SetSeq1(text)
	if m.RealQuickRatio() <= d.threshold {
		return false
	}
	if m.QuickRatio() <= d.threshold {
		return false
	}
	return m.Ratio() > d.threshold
}

// retain appends text to the sample list, evicting the oldest sample when a
// cap is configured.
func (d *Deduplicator) retain(text []string) {
	m := difflib.NewMatcher(nil, text)
	d.samples = append(d.samples, sample{matcher: m})

	if d.maxSamples > 0 && len(d.samples) > d.maxSamples {
		d.samples[0] = sample{}
		d.samples = d.samples[1:]
	}
}

// Threshold returns the configured near-duplicate threshold.
func (d *Deduplicator) Threshold() float64 {
	return d.threshold
}

// Stats describes the Deduplicator's memory.
type Stats struct {
	// Digests is the number of distinct bodies seen.
	Digests int

	// Samples is the number of retained samples.
	Samples int
}

// Stats returns the current number of digests and samples.
func (d *Deduplicator) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Stats{
		Digests: len(d.seen),
		Samples: len(d.samples),
	}
}
