// Package vcs reads file trees out of git history.
package vcs

import "errors"

// ErrNotRepository is returned when no repository encloses a path.
var ErrNotRepository = errors.New("not a git repository")

// Opener locates the repository enclosing a path.
type Opener interface {
	Open(path string) (Repository, error)
}

// Repository resolves revisions of one repository.
type Repository interface {
	// Root is the absolute worktree root.
	Root() string
	// Snapshot resolves rev (branch, tag, hash, HEAD~n) to its file tree.
	Snapshot(rev string) (Snapshot, error)
}

// Snapshot is the file tree of one commit.
type Snapshot interface {
	// Commit is the full hash of the resolved commit.
	Commit() string
	// Files lists regular files under dir, or the whole tree when dir is
	// empty. Paths are repository-relative with forward slashes. When dir
	// names a file, that file alone is listed.
	Files(dir string) ([]File, error)
	// ReadFile returns the content of a repository-relative path.
	ReadFile(path string) ([]byte, error)
}

// File is one blob in a snapshot.
type File struct {
	Path string
	Size int64
}
