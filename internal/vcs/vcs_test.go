package vcs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/bugsight/internal/testutil"
)

func paths(files []File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestOpenDetectsParentRepository(t *testing.T) {
	dir := t.TempDir()
	testutil.InitGitRepo(t, dir, map[string]string{"app/models.py": "class A:\n    pass\n"})

	repo, err := NewGitOpener().Open(filepath.Join(dir, "app"))
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(repo.Root())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestOpenNotARepository(t *testing.T) {
	_, err := NewGitOpener().Open(t.TempDir())
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestSnapshotFiles(t *testing.T) {
	dir := t.TempDir()
	first := testutil.InitGitRepo(t, dir, map[string]string{
		"app/models.py":      "class A:\n    pass\n",
		"app/views/index.py": "def index():\n    pass\n",
		"README.md":          "# demo\n",
	})

	repo, err := NewGitOpener().Open(dir)
	require.NoError(t, err)
	snap, err := repo.Snapshot("HEAD")
	require.NoError(t, err)
	assert.Equal(t, first, snap.Commit())

	tests := []struct {
		name string
		dir  string
		want []string
	}{
		{"whole tree", "", []string{"README.md", "app/models.py", "app/views/index.py"}},
		{"subdirectory", "app/views", []string{"app/views/index.py"}},
		{"single file", "app/models.py", []string{"app/models.py"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := snap.Files(tt.dir)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, paths(files))
		})
	}

	_, err = snap.Files("missing")
	assert.Error(t, err)

	files, err := snap.Files("app/models.py")
	require.NoError(t, err)
	assert.EqualValues(t, len("class A:\n    pass\n"), files[0].Size)
}

func TestSnapshotReadFile(t *testing.T) {
	dir := t.TempDir()
	testutil.InitGitRepo(t, dir, map[string]string{"app/models.py": "class A:\n    pass\n"})

	repo, err := NewGitOpener().Open(dir)
	require.NoError(t, err)
	snap, err := repo.Snapshot("HEAD")
	require.NoError(t, err)

	content, err := snap.ReadFile("app/models.py")
	require.NoError(t, err)
	assert.Equal(t, "class A:\n    pass\n", string(content))

	_, err = snap.ReadFile("missing.py")
	assert.Error(t, err)
}

func TestSnapshotRevisions(t *testing.T) {
	dir := t.TempDir()
	first := testutil.InitGitRepo(t, dir, map[string]string{"a.py": "x = 1\n"})

	raw, err := git.PlainOpen(dir)
	require.NoError(t, err)
	second := testutil.CommitFiles(t, raw, dir, map[string]string{"a.py": "x = 2\n"}, "second")

	repo, err := NewGitOpener().Open(dir)
	require.NoError(t, err)

	for rev, want := range map[string]string{"HEAD": second, "HEAD~1": first, first: first} {
		snap, err := repo.Snapshot(rev)
		require.NoError(t, err, rev)
		assert.Equal(t, want, snap.Commit(), rev)
	}

	old, err := repo.Snapshot("HEAD~1")
	require.NoError(t, err)
	content, err := old.ReadFile("a.py")
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", string(content))

	_, err = repo.Snapshot("no-such-branch")
	assert.ErrorContains(t, err, "resolve no-such-branch")
}

func TestSnapshotSkipsSymlinks(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "real.py"), "x = 1\n")
	require.NoError(t, os.Symlink("real.py", filepath.Join(dir, "link.py")))

	raw, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := raw.Worktree()
	require.NoError(t, err)
	for _, name := range []string{"real.py", "link.py"} {
		_, err = wt.Add(name)
		require.NoError(t, err)
	}
	_, err = wt.Commit("with symlink", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	repo, err := NewGitOpener().Open(dir)
	require.NoError(t, err)
	snap, err := repo.Snapshot("HEAD")
	require.NoError(t, err)

	files, err := snap.Files("")
	require.NoError(t, err)
	assert.Equal(t, []string{"real.py"}, paths(files))
}

func TestDefaultOpener(t *testing.T) {
	assert.IsType(t, &GitOpener{}, DefaultOpener())
}
