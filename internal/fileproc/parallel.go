// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/panbanda/bugsight/pkg/analyzer"
	"github.com/panbanda/bugsight/pkg/source"
)

// ErrFileTooLarge marks a file skipped because it exceeds the size limit.
var ErrFileTooLarge = errors.New("file exceeds size limit")

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// sorted orders errors by path so reports are stable across runs.
func (e *ProcessingErrors) sorted() {
	sort.SliceStable(e.Errors, func(i, j int) bool {
		return e.Errors[i].Path < e.Errors[j].Path
	})
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x is optimal for mixed I/O and CGO workloads.
const DefaultWorkerMultiplier = 2

// Options configures MapSourceFiles.
type Options struct {
	// Workers is the pool size. <= 0 means 2x NumCPU.
	Workers int
	// MaxFileSize skips files larger than this many bytes. 0 means no limit.
	MaxFileSize int64
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU() * DefaultWorkerMultiplier
}

// fileWithContent holds a file path and its content.
type fileWithContent struct {
	index   int
	path    string
	content []byte
}

// MapSourceFiles reads files from src and calls fn for each one in parallel.
// Every worker borrows a resource created by newResource (a parser, an
// analyzer) so no resource is used by two goroutines at once; closeResource
// releases them when the pool drains.
//
// Results keep the order of files. Files that cannot be read, exceed the
// size limit, fail in fn or are cut off by cancellation are left out of the
// results and reported in the returned ProcessingErrors, which is nil when
// nothing failed. Progress is tracked via context using analyzer.WithTracker.
func MapSourceFiles[T any, R any](
	ctx context.Context,
	files []string,
	src source.ContentSource,
	opts Options,
	newResource func() R,
	closeResource func(R),
	fn func(R, string, []byte) (T, error),
) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	errs := &ProcessingErrors{}

	// Read all file content sequentially to avoid concurrent access to git trees
	loaded := make([]fileWithContent, 0, len(files))
	for i, path := range files {
		content, err := src.Read(path)
		if err != nil {
			errs.Add(path, err)
			continue
		}
		if opts.MaxFileSize > 0 && int64(len(content)) > opts.MaxFileSize {
			errs.Add(path, ErrFileTooLarge)
			continue
		}
		loaded = append(loaded, fileWithContent{index: i, path: path, content: content})
	}

	tracker := analyzer.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.Add(len(loaded))
	}

	maxWorkers := min(opts.workers(), max(len(loaded), 1))
	resources := newResourcePool(maxWorkers, newResource)
	defer resources.close(closeResource)

	results := make([]T, len(files))
	done := make([]bool, len(files))

	p := pool.New().WithMaxGoroutines(maxWorkers).WithContext(ctx)
	for _, fc := range loaded {
		p.Go(func(ctx context.Context) error {
			failed := true
			defer func() {
				switch {
				case tracker == nil:
				case failed:
					tracker.Fail(fc.path)
				default:
					tracker.Tick(fc.path)
				}
			}()

			select {
			case <-ctx.Done():
				errs.Add(fc.path, ctx.Err())
				return nil
			default:
			}

			r := resources.get()
			defer resources.put(r)

			result, err := fn(r, fc.path, fc.content)
			if err != nil {
				errs.Add(fc.path, err)
				return nil
			}
			failed = false

			// each index is written by exactly one goroutine
			results[fc.index] = result
			done[fc.index] = true
			return nil
		})
	}
	_ = p.Wait()

	out := make([]T, 0, len(loaded))
	for i, ok := range done {
		if ok {
			out = append(out, results[i])
		}
	}

	if !errs.HasErrors() {
		return out, nil
	}
	errs.sorted()
	return out, errs
}

// resourcePool hands out per-worker resources. Resources are created lazily
// so a pool larger than the work never pays for unused parsers.
type resourcePool[R any] struct {
	ch      chan R
	mu      sync.Mutex
	created []R
	limit   int
	factory func() R
}

func newResourcePool[R any](size int, factory func() R) *resourcePool[R] {
	return &resourcePool[R]{
		ch:      make(chan R, size),
		limit:   size,
		factory: factory,
	}
}

func (p *resourcePool[R]) get() R {
	select {
	case r := <-p.ch:
		return r
	default:
	}

	p.mu.Lock()
	if len(p.created) < p.limit {
		r := p.factory()
		p.created = append(p.created, r)
		p.mu.Unlock()
		return r
	}
	p.mu.Unlock()
	return <-p.ch
}

func (p *resourcePool[R]) put(r R) {
	p.ch <- r
}

// close releases every resource ever created. Call only after all workers
// have returned their resources.
func (p *resourcePool[R]) close(release func(R)) {
	if release == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range p.created {
		release(r)
	}
}
