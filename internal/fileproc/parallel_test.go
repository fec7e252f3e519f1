package fileproc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/bugsight/pkg/analyzer"
)

type mapSource map[string][]byte

func (m mapSource) Read(path string) ([]byte, error) {
	content, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("%s: not found", path)
	}
	return content, nil
}

type counter struct {
	id     int
	closed bool
}

func identity(_ *counter, path string, _ []byte) (string, error) {
	return path, nil
}

func TestMapSourceFilesPreservesOrder(t *testing.T) {
	src := mapSource{}
	files := make([]string, 100)
	for i := range files {
		files[i] = fmt.Sprintf("mod%03d.py", i)
		src[files[i]] = []byte("x = 1\n")
	}

	results, errs := MapSourceFiles(context.Background(), files, src, Options{Workers: 8},
		func() *counter { return &counter{} }, nil, identity)

	assert.Nil(t, errs)
	assert.Equal(t, files, results)
}

func TestMapSourceFilesEmpty(t *testing.T) {
	results, errs := MapSourceFiles(context.Background(), nil, mapSource{}, Options{},
		func() *counter { return &counter{} }, nil, identity)
	assert.Nil(t, results)
	assert.Nil(t, errs)
}

func TestMapSourceFilesCollectsErrors(t *testing.T) {
	src := mapSource{
		"a.py":     []byte("x = 1\n"),
		"big.py":   make([]byte, 256),
		"bad.py":   []byte("def"),
		"other.py": []byte("y = 2\n"),
	}
	boom := errors.New("boom")

	results, errs := MapSourceFiles(context.Background(),
		[]string{"a.py", "missing.py", "big.py", "bad.py", "other.py"},
		src, Options{MaxFileSize: 100},
		func() *counter { return &counter{} }, nil,
		func(_ *counter, path string, content []byte) (string, error) {
			if string(content) == "def" {
				return "", boom
			}
			return path, nil
		})

	assert.Equal(t, []string{"a.py", "other.py"}, results)
	require.NotNil(t, errs)
	require.True(t, errs.HasErrors())
	require.Len(t, errs.Errors, 3)

	byPath := map[string]error{}
	for _, e := range errs.Errors {
		byPath[e.Path] = e.Err
	}
	assert.ErrorIs(t, byPath["big.py"], ErrFileTooLarge)
	assert.ErrorIs(t, byPath["bad.py"], boom)
	assert.Error(t, byPath["missing.py"])
	assert.Contains(t, errs.Error(), "3 files failed to process")
}

func TestMapSourceFilesResourcesAreExclusive(t *testing.T) {
	src := mapSource{}
	files := make([]string, 64)
	for i := range files {
		files[i] = fmt.Sprintf("f%d.py", i)
		src[files[i]] = []byte("pass\n")
	}

	var created atomic.Int32
	var mu sync.Mutex
	var all []*counter
	inUse := map[*counter]bool{}

	_, errs := MapSourceFiles(context.Background(), files, src, Options{Workers: 4},
		func() *counter {
			c := &counter{id: int(created.Add(1))}
			mu.Lock()
			all = append(all, c)
			mu.Unlock()
			return c
		},
		func(c *counter) { c.closed = true },
		func(c *counter, path string, _ []byte) (string, error) {
			mu.Lock()
			if inUse[c] {
				mu.Unlock()
				return "", fmt.Errorf("resource %d shared", c.id)
			}
			inUse[c] = true
			mu.Unlock()

			mu.Lock()
			inUse[c] = false
			mu.Unlock()
			return path, nil
		})

	assert.Nil(t, errs)
	assert.LessOrEqual(t, int(created.Load()), 4)
	for _, c := range all {
		assert.True(t, c.closed, "resource %d not released", c.id)
	}
}

func TestMapSourceFilesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, errs := MapSourceFiles(ctx, []string{"a.py", "b.py"},
		mapSource{"a.py": nil, "b.py": nil}, Options{Workers: 1},
		func() *counter { return &counter{} }, nil, identity)

	assert.Empty(t, results)
	require.NotNil(t, errs)
	for _, e := range errs.Errors {
		assert.ErrorIs(t, e.Err, context.Canceled)
	}
}

func TestMapSourceFilesTracksProgress(t *testing.T) {
	var ticks atomic.Int32
	tracker := analyzer.NewTracker(func(_, _ int, _ string) { ticks.Add(1) })
	ctx := analyzer.WithTracker(context.Background(), tracker)

	src := mapSource{"a.py": nil, "b.py": nil, "bad.py": nil}
	_, errs := MapSourceFiles(ctx, []string{"a.py", "b.py", "bad.py", "gone.py"}, src, Options{},
		func() *counter { return &counter{} }, nil,
		func(_ *counter, path string, content []byte) (string, error) {
			if path == "bad.py" {
				return "", errors.New("rejected")
			}
			return path, nil
		})

	require.NotNil(t, errs)
	assert.Len(t, errs.Errors, 2)
	assert.Equal(t, 3, tracker.Total(), "unreadable files are not counted")
	assert.Equal(t, 3, tracker.Current())
	assert.Equal(t, 1, tracker.Failed())
	assert.Equal(t, int32(3), ticks.Load())
}

func TestProcessingErrors(t *testing.T) {
	var errs *ProcessingErrors
	assert.False(t, errs.HasErrors())

	errs = &ProcessingErrors{}
	assert.Equal(t, "no errors", errs.Error())

	errs.Add("a.py", ErrFileTooLarge)
	assert.Equal(t, "a.py: file exceeds size limit", errs.Error())
	assert.ErrorIs(t, errs.Errors[0], ErrFileTooLarge)
}
