package source

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/bugsight/internal/testutil"
	"github.com/panbanda/bugsight/internal/vcs"
)

func TestFilesystemSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	testutil.WriteFile(t, path, "x = 1\n")

	src := NewFilesystem()

	content, err := src.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", string(content))

	_, err = src.Read(filepath.Join(dir, "nonexistent.py"))
	assert.Error(t, err)
}

func TestTreeSource(t *testing.T) {
	dir := t.TempDir()
	commit := testutil.InitGitRepo(t, dir, map[string]string{
		"pkg/shapes.py": "class Shape:\n    pass\n",
		"setup.cfg":     "[metadata]\n",
	})

	src, err := AtRevision(vcs.NewGitOpener(), dir, "HEAD")
	require.NoError(t, err)
	assert.Equal(t, commit, src.Commit())

	files, err := src.Files()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"pkg/shapes.py", "setup.cfg"}, files)

	content, err := src.Read("pkg/shapes.py")
	require.NoError(t, err)
	assert.Contains(t, string(content), "class Shape")
}

func TestTreeSourceSubdirectory(t *testing.T) {
	dir := t.TempDir()
	testutil.InitGitRepo(t, dir, map[string]string{
		"pkg/shapes.py":     "class Shape:\n    pass\n",
		"pkg/geo/points.py": "class Point:\n    pass\n",
		"scripts/run.py":    "print(1)\n",
	})

	src, err := AtRevision(vcs.NewGitOpener(), filepath.Join(dir, "pkg"), "HEAD")
	require.NoError(t, err)

	files, err := src.Files()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"pkg/shapes.py", "pkg/geo/points.py"}, files)

	// reads stay repository-relative
	content, err := src.Read("scripts/run.py")
	require.NoError(t, err)
	assert.Equal(t, "print(1)\n", string(content))
}

func TestAtRevisionErrors(t *testing.T) {
	_, err := AtRevision(vcs.NewGitOpener(), t.TempDir(), "HEAD")
	assert.ErrorIs(t, err, vcs.ErrNotRepository)

	dir := t.TempDir()
	testutil.InitGitRepo(t, dir, map[string]string{"a.py": "x = 1\n"})
	_, err = AtRevision(vcs.NewGitOpener(), dir, "missing-ref")
	assert.ErrorContains(t, err, "resolve missing-ref")
}

func TestRelativeDir(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"root", root, "", false},
		{"nested", filepath.Join(root, "a", "b"), "a/b", false},
		{"outside", filepath.Dir(root), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := relativeDir(root, tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContentSourceImplementations(t *testing.T) {
	var _ ContentSource = (*FilesystemSource)(nil)
	var _ ContentSource = (*TreeSource)(nil)
}
