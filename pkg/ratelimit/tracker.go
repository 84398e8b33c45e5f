package ratelimit

import (
	"sync"
	"time"
)

// trackerWindow is the span of the sliding windows
const trackerWindow = 30 * time.Minute

type sample struct {
	count int
	at    time.Time
}

// Rates is a point-in-time view of the processing throughput
type Rates struct {
	CommentsPerSecond float64 `json:"comments_per_second"`
	ItemsPerMinute    float64 `json:"items_per_minute"`
}

// Tracker keeps sliding windows of processed-comment and processed-item
// counts for observability. It never influences control flow.
type Tracker struct {
	window   time.Duration
	comments []sample
	items    []sample
	now      func() time.Time
	mu       sync.Mutex
}

// NewTracker creates a tracker with 30-minute windows
func NewTracker() *Tracker {
	return &Tracker{
		window: trackerWindow,
		now:    time.Now,
	}
}

// RecordComments records n processed comments
func (t *Tracker) RecordComments(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.comments = t.record(t.comments, n)
}

// RecordItems records n processed content items
func (t *Tracker) RecordItems(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = t.record(t.items, n)
}

func (t *Tracker) record(samples []sample, n int) []sample {
	now := t.now()
	samples = prune(samples, now.Add(-t.window))
	return append(samples, sample{count: n, at: now})
}

// Rates returns the derived throughput over the current windows
func (t *Tracker) Rates() Rates {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	cutoff := now.Add(-t.window)
	t.comments = prune(t.comments, cutoff)
	t.items = prune(t.items, cutoff)

	return Rates{
		CommentsPerSecond: windowRate(t.comments, now),
		ItemsPerMinute:    windowRate(t.items, now) * 60,
	}
}

// windowRate returns total-in-window divided by elapsed seconds since the
// oldest sample
func windowRate(samples []sample, now time.Time) float64 {
	if len(samples) == 0 {
		return 0
	}

	total := 0
	for _, s := range samples {
		total += s.count
	}

	elapsed := now.Sub(samples[0].at).Seconds()
	if elapsed < 1 {
		elapsed = 1
	}
	return float64(total) / elapsed
}

// prune removes samples that fell out of the window
func prune(samples []sample, cutoff time.Time) []sample {
	i := 0
	for i < len(samples) && samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		copy(samples, samples[i:])
		samples = samples[:len(samples)-i]
	}
	return samples
}
