package analyzer

import (
	"context"
	"sync/atomic"
)

// ProgressFunc receives the number of finished files, the number expected
// so far and the file that just finished.
type ProgressFunc func(current, total int, path string)

// Tracker counts finished files across worker goroutines.
type Tracker struct {
	total    atomic.Int64
	current  atomic.Int64
	failed   atomic.Int64
	callback ProgressFunc
}

// NewTracker creates a tracker. callback may be nil.
func NewTracker(callback ProgressFunc) *Tracker {
	return &Tracker{callback: callback}
}

// Add grows the expected total by n.
func (t *Tracker) Add(n int) {
	t.total.Add(int64(n))
}

// SetTotal replaces the expected total.
func (t *Tracker) SetTotal(n int) {
	t.total.Store(int64(n))
}

// Tick marks path as finished.
func (t *Tracker) Tick(path string) {
	t.finish(path)
}

// Fail marks path as finished without a result.
func (t *Tracker) Fail(path string) {
	t.failed.Add(1)
	t.finish(path)
}

func (t *Tracker) finish(path string) {
	current := t.current.Add(1)
	if t.callback != nil {
		t.callback(int(current), int(t.total.Load()), path)
	}
}

// Current returns the number of finished files, failed ones included.
func (t *Tracker) Current() int {
	return int(t.current.Load())
}

// Total returns the expected total.
func (t *Tracker) Total() int {
	return int(t.total.Load())
}

// Failed returns the number of files marked with Fail.
func (t *Tracker) Failed() int {
	return int(t.failed.Load())
}

type trackerKey struct{}

// WithTracker attaches t to ctx for fileproc to report into.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext returns the tracker attached by WithTracker, or nil.
func TrackerFromContext(ctx context.Context) *Tracker {
	t, _ := ctx.Value(trackerKey{}).(*Tracker)
	return t
}
