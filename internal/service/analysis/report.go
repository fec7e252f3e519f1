package analysis

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/panbanda/bugsight/pkg/analyzer/metrics"
	"github.com/panbanda/bugsight/pkg/stats"
)

// FileResult is the outcome for one file: a record or a classified failure.
type FileResult struct {
	Path    string          `json:"path"`
	Metrics *metrics.Record `json:"metrics,omitempty"`
	Failure *Failure        `json:"failure,omitempty"`

	cached bool
}

// Failure is a classified analysis failure.
type Failure struct {
	// Kind is indentation, syntax, inheritance_cycle, traversal or other.
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// NewFailure classifies an analysis error.
func NewFailure(err error) *Failure {
	f := &Failure{
		Kind:    metrics.FailureKind(err),
		Message: metrics.FailureMessage(err),
	}
	var se *metrics.StructuralError
	if errors.As(err, &se) {
		f.Line = se.Line
		f.Column = se.Column
	}
	return f
}

// Skipped is a file that was never analyzed.
type Skipped struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Summary aggregates a run.
type Summary struct {
	TotalFiles     int                      `json:"totalFiles"`
	Analyzed       int                      `json:"analyzed"`
	Failed         int                      `json:"failed"`
	Skipped        int                      `json:"skipped"`
	CacheHits      int                      `json:"cacheHits"`
	FailuresByKind map[string]int           `json:"failuresByKind,omitempty"`
	Metrics        map[string]stats.Summary `json:"metrics,omitempty"`
}

// Report is the result of analyzing a set of files.
type Report struct {
	GeneratedAt time.Time    `json:"generatedAt"`
	Ref         string       `json:"ref,omitempty"`
	Commit      string       `json:"commit,omitempty"`
	Files       []FileResult `json:"files"`
	Failures    []FileResult `json:"failures,omitempty"`
	Skipped     []Skipped    `json:"skipped,omitempty"`
	Summary     Summary      `json:"summary"`
}

// summarize fills Summary from the current file lists. Distribution
// statistics cover every analyzed file, before any Limit.
func (r *Report) summarize() {
	s := Summary{
		Analyzed: len(r.Files),
		Failed:   len(r.Failures),
		Skipped:  len(r.Skipped),
	}
	s.TotalFiles = s.Analyzed + s.Failed + s.Skipped

	if len(r.Failures) > 0 {
		s.FailuresByKind = make(map[string]int)
		for _, f := range r.Failures {
			s.FailuresByKind[f.Failure.Kind]++
		}
	}

	if len(r.Files) > 0 {
		columns := make(map[string][]float64, len(metrics.FeatureNames))
		for _, f := range r.Files {
			if f.cached {
				s.CacheHits++
			}
			for name, v := range f.Metrics.Flatten() {
				columns[name] = append(columns[name], v)
			}
		}
		s.Metrics = make(map[string]stats.Summary, len(columns))
		for name, values := range columns {
			s.Metrics[name] = stats.Summarize(values)
		}
	}
	r.Summary = s
}

// SortBy orders analyzed files by a feature, highest first, ties by path.
// Failures are ordered by path.
func (r *Report) SortBy(metric string) error {
	if !metrics.IsFeature(metric) {
		return fmt.Errorf("unknown metric %q", metric)
	}
	sort.SliceStable(r.Files, func(i, j int) bool {
		a, _ := r.Files[i].Metrics.Value(metric)
		b, _ := r.Files[j].Metrics.Value(metric)
		if a != b {
			return a > b
		}
		return r.Files[i].Path < r.Files[j].Path
	})
	sort.SliceStable(r.Failures, func(i, j int) bool {
		return r.Failures[i].Path < r.Failures[j].Path
	})
	return nil
}

// Limit keeps the first n analyzed files. Failures are always kept.
func (r *Report) Limit(n int) {
	if n > 0 && len(r.Files) > n {
		r.Files = r.Files[:n]
	}
}
