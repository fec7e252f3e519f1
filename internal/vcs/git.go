package vcs

import (
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitOpener opens repositories with go-git. It searches parent directories
// for .git.
type GitOpener struct{}

// NewGitOpener creates a new GitOpener.
func NewGitOpener() *GitOpener {
	return &GitOpener{}
}

var defaultOpener Opener = NewGitOpener()

// DefaultOpener returns the go-git opener.
func DefaultOpener() Opener {
	return defaultOpener
}

// Open implements Opener.
func (o *GitOpener) Open(dir string) (Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, dir)
	}
	if err != nil {
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("worktree: %w", err)
	}
	return &gitRepository{repo: repo, root: wt.Filesystem.Root()}, nil
}

type gitRepository struct {
	repo *git.Repository
	root string
}

func (r *gitRepository) Root() string {
	return r.root
}

func (r *gitRepository) Snapshot(rev string) (Snapshot, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rev, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("load tree %s: %w", hash, err)
	}
	return &gitSnapshot{commit: commit.Hash.String(), tree: tree}, nil
}

type gitSnapshot struct {
	commit string
	tree   *object.Tree
}

func (s *gitSnapshot) Commit() string {
	return s.commit
}

func (s *gitSnapshot) Files(dir string) ([]File, error) {
	tree := s.tree
	if dir != "" {
		sub, err := s.tree.Tree(dir)
		if errors.Is(err, object.ErrDirectoryNotFound) {
			f, ferr := s.tree.File(dir)
			if ferr != nil {
				return nil, fmt.Errorf("%s: not in tree", dir)
			}
			return []File{{Path: dir, Size: f.Size}}, nil
		}
		if err != nil {
			return nil, err
		}
		tree = sub
	}

	var files []File
	err := tree.Files().ForEach(func(f *object.File) error {
		// symlinks and submodules carry no source
		if f.Mode == filemode.Symlink || f.Mode == filemode.Submodule {
			return nil
		}
		files = append(files, File{Path: path.Join(dir, f.Name), Size: f.Size})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (s *gitSnapshot) ReadFile(name string) ([]byte, error) {
	f, err := s.tree.File(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	reader, err := f.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
