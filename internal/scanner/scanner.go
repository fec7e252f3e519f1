package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/panbanda/bugsight/pkg/config"
	"github.com/panbanda/bugsight/pkg/parser"
)

// Scanner finds Python source files in a directory.
type Scanner struct {
	config *config.Config

	// patterns match paths relative to the scan root
	patterns gitignore.Matcher
	// ignored matches paths relative to gitRoot
	ignored gitignore.Matcher
	gitRoot string
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns loads exclusion patterns from config and, when enabled,
// every .gitignore in the enclosing repository.
func (s *Scanner) loadExcludePatterns(absRoot string) {
	var patterns []gitignore.Pattern
	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}
	if len(patterns) > 0 {
		s.patterns = gitignore.NewMatcher(patterns)
	}

	if !s.config.Exclude.Gitignore {
		return
	}
	s.gitRoot = findGitRoot(absRoot)
	if s.gitRoot == "" {
		return
	}
	if gitPatterns, err := gitignore.ReadPatterns(osfs.New(s.gitRoot), nil); err == nil && len(gitPatterns) > 0 {
		s.ignored = gitignore.NewMatcher(gitPatterns)
	}
}

// isExcluded checks a path (relative to the scan root) against every rule.
func (s *Scanner) isExcluded(absPath, relPath string, isDir bool) bool {
	if isDir && slices.Contains(s.config.Exclude.Dirs, filepath.Base(relPath)) {
		return true
	}
	if s.patterns != nil && s.patterns.Match(splitPath(relPath), isDir) {
		return true
	}
	if s.ignored != nil {
		if rel, err := filepath.Rel(s.gitRoot, absPath); err == nil && !strings.HasPrefix(rel, "..") {
			if s.ignored.Match(splitPath(rel), isDir) {
				return true
			}
		}
	}
	if !isDir && !s.config.Analysis.IncludeTests && config.IsTestFile(relPath) {
		return true
	}
	return false
}

func splitPath(path string) []string {
	return strings.Split(filepath.ToSlash(path), "/")
}

// ScanDir recursively scans a directory for Python files.
// Validates that all paths stay within the root directory to prevent traversal attacks.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 256)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadExcludePatterns(absRoot)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)
		if relPath == "." {
			return nil
		}
		absPath := filepath.Join(absRoot, relPath)

		// Security: validate path stays within root (prevent symlink traversal)
		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			if s.isExcluded(absPath, relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isExcluded(absPath, relPath, false) {
			return nil
		}
		if parser.DetectLanguage(path) == parser.LangPython {
			files = append(files, path)
		}

		return nil
	})

	return files, walkErr
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// ScanPaths expands a mix of files and directories into Python files.
// Explicitly named files are kept even when they look like tests.
func (s *Scanner) ScanPaths(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if parser.DetectLanguage(p) == parser.LangPython {
				files = append(files, p)
			}
			continue
		}
		found, err := s.ScanDir(p)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

// FilterPaths applies config exclusions and the Python extension check to
// repository-relative paths, such as the entries of a git tree.
func (s *Scanner) FilterPaths(paths []string) []string {
	if s.patterns == nil && len(s.config.Exclude.Patterns) > 0 {
		var patterns []gitignore.Pattern
		for _, pattern := range s.config.Exclude.Patterns {
			patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
		}
		s.patterns = gitignore.NewMatcher(patterns)
	}

	var out []string
	for _, p := range paths {
		if parser.DetectLanguage(p) != parser.LangPython {
			continue
		}
		if s.excludedByDir(p) || s.isExcluded(p, p, false) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *Scanner) excludedByDir(path string) bool {
	parts := splitPath(path)
	for _, dir := range parts[:len(parts)-1] {
		if slices.Contains(s.config.Exclude.Dirs, dir) {
			return true
		}
	}
	return false
}
