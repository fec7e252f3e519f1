// Package analyzer holds the contracts shared by the analysis engines and
// the file processing layer: the FileAnalyzer interface and progress
// tracking carried on a context.
package analyzer

import "context"

// FileAnalyzer analyzes a set of files into a single result.
type FileAnalyzer[T any] interface {
	// Analyze processes files. Cancelling ctx stops the run and returns
	// ctx.Err(); a tracker attached with WithTracker receives progress.
	Analyze(ctx context.Context, files []string) (T, error)

	// Close releases any resources held by the analyzer.
	Close()
}
