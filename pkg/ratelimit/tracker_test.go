package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestTracker() (*Tracker, *time.Time) {
	tr := NewTracker()
	now := time.Unix(1000, 0)
	tr.now = func() time.Time { return now }
	return tr, &now
}

func TestTrackerEmptyRates(t *testing.T) {
	tr, _ := newTestTracker()

	rates := tr.Rates()
	assert.Zero(t, rates.CommentsPerSecond)
	assert.Zero(t, rates.ItemsPerMinute)
}

func TestTrackerRates(t *testing.T) {
	tr, now := newTestTracker()

	tr.RecordComments(100)
	tr.RecordItems(2)
	*now = now.Add(10 * time.Second)
	tr.RecordComments(100)
	tr.RecordItems(2)

	rates := tr.Rates()
	assert.InDelta(t, 20.0, rates.CommentsPerSecond, 0.01, "200 comments over 10 seconds")
	assert.InDelta(t, 24.0, rates.ItemsPerMinute, 0.01, "4 items over 10 seconds")
}

func TestTrackerMinimumElapsed(t *testing.T) {
	tr, _ := newTestTracker()

	// All samples at the same instant: elapsed is floored at one second so a
	// burst does not report an infinite rate
	tr.RecordComments(50)
	rates := tr.Rates()
	assert.InDelta(t, 50.0, rates.CommentsPerSecond, 0.01)
}

func TestTrackerPrunesOldSamples(t *testing.T) {
	tr, now := newTestTracker()

	tr.RecordComments(1000)
	*now = now.Add(31 * time.Minute)
	tr.RecordComments(30)
	*now = now.Add(30 * time.Second)

	rates := tr.Rates()
	assert.InDelta(t, 1.0, rates.CommentsPerSecond, 0.01, "only the in-window sample counts")
}
