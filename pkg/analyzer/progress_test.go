package analyzer

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressCall struct {
	current, total int
	path           string
}

func TestTrackerTickAndFail(t *testing.T) {
	var calls []progressCall
	tracker := NewTracker(func(current, total int, path string) {
		calls = append(calls, progressCall{current, total, path})
	})

	tracker.Add(3)
	tracker.Tick("a.py")
	tracker.Fail("b.py")
	tracker.Tick("c.py")

	assert.Equal(t, 3, tracker.Total())
	assert.Equal(t, 3, tracker.Current())
	assert.Equal(t, 1, tracker.Failed())
	assert.Equal(t, []progressCall{
		{1, 3, "a.py"},
		{2, 3, "b.py"},
		{3, 3, "c.py"},
	}, calls)
}

func TestTrackerSetTotal(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.Add(5)
	tracker.SetTotal(2)
	tracker.Tick("a.py")

	assert.Equal(t, 2, tracker.Total())
	assert.Equal(t, 1, tracker.Current())
}

func TestTrackerConcurrent(t *testing.T) {
	tracker := NewTracker(func(int, int, string) {})
	tracker.SetTotal(100)

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%10 == 0 {
				tracker.Fail("f.py")
				return
			}
			tracker.Tick("f.py")
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, tracker.Current())
	assert.Equal(t, 10, tracker.Failed())
}

func TestTrackerContext(t *testing.T) {
	assert.Nil(t, TrackerFromContext(context.Background()))

	tracker := NewTracker(nil)
	got := TrackerFromContext(WithTracker(context.Background(), tracker))
	require.NotNil(t, got)
	assert.Same(t, tracker, got)
}
