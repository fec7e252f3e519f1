// Package source abstracts where file content comes from: the working tree
// or a git revision.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/panbanda/bugsight/internal/vcs"
)

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct{}

// NewFilesystem creates a source that reads from the filesystem.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// TreeSource reads files from one commit, limited to a directory of it.
// Reads are serialized; go-git object access is not safe for concurrent use.
type TreeSource struct {
	snapshot vcs.Snapshot
	dir      string
	mu       sync.Mutex
}

// NewTree creates a source over snapshot. dir limits Files to a
// repository-relative directory; empty means the whole tree.
func NewTree(snapshot vcs.Snapshot, dir string) *TreeSource {
	return &TreeSource{snapshot: snapshot, dir: dir}
}

// Read implements ContentSource for repository-relative paths.
func (t *TreeSource) Read(path string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot.ReadFile(path)
}

// Files lists the files under the source's directory, relative to the
// repository root.
func (t *TreeSource) Files() ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, err := t.snapshot.Files(t.dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		files = append(files, e.Path)
	}
	return files, nil
}

// Commit returns the resolved commit hash.
func (t *TreeSource) Commit() string {
	return t.snapshot.Commit()
}

// AtRevision opens the repository containing path and returns a source for
// the tree at rev. When path is below the repository root, Files lists only
// that part of the tree.
func AtRevision(opener vcs.Opener, path, rev string) (*TreeSource, error) {
	repo, err := opener.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	dir, err := relativeDir(repo.Root(), path)
	if err != nil {
		return nil, err
	}
	snapshot, err := repo.Snapshot(rev)
	if err != nil {
		return nil, err
	}
	return NewTree(snapshot, dir), nil
}

// relativeDir expresses path relative to root with forward slashes, "" for
// the root itself. Symlinks are resolved on both sides first.
func relativeDir(root, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside repository %s", path, root)
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}
