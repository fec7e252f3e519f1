package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/panbanda/bugsight/internal/cache"
	"github.com/panbanda/bugsight/internal/fileproc"
	"github.com/panbanda/bugsight/internal/scanner"
	"github.com/panbanda/bugsight/internal/vcs"
	"github.com/panbanda/bugsight/pkg/analyzer"
	"github.com/panbanda/bugsight/pkg/analyzer/metrics"
	"github.com/panbanda/bugsight/pkg/config"
	"github.com/panbanda/bugsight/pkg/source"
)

// Service orchestrates metrics analysis over many files.
type Service struct {
	config *config.Config
	opener vcs.Opener
	cache  *cache.Cache
	logger *slog.Logger
	now    func() time.Time
}

var _ analyzer.FileAnalyzer[*Report] = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithOpener sets the VCS opener (for testing).
func WithOpener(opener vcs.Opener) Option {
	return func(s *Service) {
		s.opener = opener
	}
}

// WithCache enables record caching.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault(),
		opener: vcs.DefaultOpener(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MetricsOptions configures one analysis run.
type MetricsOptions struct {
	// Ref analyzes the git tree at this revision instead of the working tree.
	Ref string
	// SortBy orders files by a feature name, highest first.
	SortBy string
	// Top keeps only the first N files after sorting. 0 keeps all.
	Top int
	// NoCache bypasses the record cache for this run.
	NoCache bool
}

// AnalyzeMetrics finds Python files under paths and analyzes each of them.
// With opts.Ref set, paths[0] (default ".") locates the repository and files
// come from the tree at that revision, limited to paths[0] when it is below
// the repository root.
func (s *Service) AnalyzeMetrics(ctx context.Context, paths []string, opts MetricsOptions) (*Report, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	var (
		files  []string
		src    source.ContentSource
		commit string
	)
	if opts.Ref != "" {
		if len(paths) > 1 {
			return nil, fmt.Errorf("--ref takes a single repository path, got %d", len(paths))
		}
		tree, err := source.AtRevision(s.opener, paths[0], opts.Ref)
		if err != nil {
			return nil, err
		}
		all, err := tree.Files()
		if err != nil {
			return nil, fmt.Errorf("list tree: %w", err)
		}
		files = scanner.NewScanner(s.config).FilterPaths(all)
		src = tree
		commit = tree.Commit()
	} else {
		found, err := scanner.NewScanner(s.config).ScanPaths(paths)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		files = found
		src = source.NewFilesystem()
	}

	s.logger.Debug("files discovered", "count", len(files), "ref", opts.Ref)

	report, err := s.AnalyzeFiles(ctx, files, src, opts)
	if err != nil {
		return nil, err
	}
	report.Ref = opts.Ref
	report.Commit = commit
	return report, nil
}

// Analyze implements analyzer.FileAnalyzer over files on disk.
func (s *Service) Analyze(ctx context.Context, files []string) (*Report, error) {
	return s.AnalyzeFiles(ctx, files, source.NewFilesystem(), MetricsOptions{})
}

// Close releases resources held by the service.
func (s *Service) Close() {}

// metricOptions translates the analysis config into engine options.
func (s *Service) metricOptions() ([]metrics.Option, string, error) {
	policy, err := metrics.ParseCyclePolicy(s.config.Analysis.CyclePolicy)
	if err != nil {
		return nil, "", err
	}
	names := s.config.Analysis.SelfNames
	if len(names) == 0 {
		names = metrics.DefaultSelfNames
	}
	opts := []metrics.Option{
		metrics.WithSelfNames(names...),
		metrics.WithCyclePolicy(policy),
	}
	return opts, cache.Fingerprint(strings.Join(names, ","), string(policy)), nil
}

// AnalyzeSource analyzes one in-memory module. Failures are returned in the
// result, never as an error; the error covers configuration problems only.
// The record cache is not consulted.
func (s *Service) AnalyzeSource(ctx context.Context, path string, content []byte) (FileResult, error) {
	opts, _, err := s.metricOptions()
	if err != nil {
		return FileResult{}, err
	}
	a := metrics.New(opts...)
	defer a.Close()
	return s.analyzeOne(ctx, a, nil, "", path, content), nil
}

// AnalyzeFiles analyzes files read from src. A file that fails analysis
// yields a Failure entry and never stops the others. Unreadable and
// oversized files are listed as skipped.
func (s *Service) AnalyzeFiles(ctx context.Context, files []string, src source.ContentSource, opts MetricsOptions) (*Report, error) {
	metricOpts, fingerprint, err := s.metricOptions()
	if err != nil {
		return nil, err
	}

	var c *cache.Cache
	if !opts.NoCache {
		c = s.cache
	}

	results, errs := fileproc.MapSourceFiles(ctx, files, src,
		fileproc.Options{
			Workers:     s.config.Analysis.Workers,
			MaxFileSize: s.config.Analysis.MaxFileSize,
		},
		func() *metrics.Analyzer { return metrics.New(metricOpts...) },
		(*metrics.Analyzer).Close,
		func(a *metrics.Analyzer, path string, content []byte) (FileResult, error) {
			return s.analyzeOne(ctx, a, c, fingerprint, path, content), nil
		},
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{GeneratedAt: s.now().UTC()}
	for _, r := range results {
		if r.Failure != nil {
			report.Failures = append(report.Failures, r)
			continue
		}
		report.Files = append(report.Files, r)
	}
	if errs != nil {
		for _, e := range errs.Errors {
			s.logger.Warn("file skipped", "path", e.Path, "reason", e.Err)
			report.Skipped = append(report.Skipped, Skipped{Path: e.Path, Reason: e.Err.Error()})
		}
	}
	report.summarize()

	if opts.SortBy != "" {
		if err := report.SortBy(opts.SortBy); err != nil {
			return nil, err
		}
	}
	if opts.Top > 0 {
		report.Limit(opts.Top)
	}
	return report, nil
}

func (s *Service) analyzeOne(ctx context.Context, a *metrics.Analyzer, c *cache.Cache, fingerprint, path string, content []byte) FileResult {
	var hash, key string
	if c.Enabled() {
		hash = cache.HashBytes(content)
		key = cache.RecordKey(filepath.ToSlash(path), fingerprint)
		if rec, ok := c.GetRecord(key, hash); ok {
			return FileResult{Path: path, Metrics: rec, cached: true}
		}
	}

	rec, err := a.AnalyzeSource(ctx, path, content)
	if err != nil {
		kind := metrics.FailureKind(err)
		level := slog.LevelDebug
		if kind == "traversal" || kind == "other" {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "analysis failed", "path", path, "kind", kind, "error", err)
		return FileResult{Path: path, Failure: NewFailure(err)}
	}

	if c.Enabled() {
		if err := c.SetRecord(key, hash, rec); err != nil {
			s.logger.Debug("cache write failed", "path", path, "error", err)
		}
	}
	return FileResult{Path: path, Metrics: rec}
}
