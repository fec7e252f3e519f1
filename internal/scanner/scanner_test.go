package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/bugsight/internal/testutil"
	"github.com/panbanda/bugsight/pkg/config"
)

func relFiles(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	sort.Strings(out)
	return out
}

func TestNewScanner(t *testing.T) {
	s := NewScanner(nil)
	require.NotNil(t, s)
	assert.NotNil(t, s.config, "nil config falls back to defaults")
}

func TestScanDir(t *testing.T) {
	root := t.TempDir()
	testutil.CreateFileTree(t, root, map[string]string{
		"app/models.py":              "class A:\n    pass\n",
		"app/views.pyw":              "x = 1\n",
		"app/stubs.pyi":              "def f() -> int: ...\n",
		"app/README.md":              "# readme\n",
		"app/__pycache__/models.py":  "x = 1\n",
		".venv/lib/site.py":          "x = 1\n",
		"api/service_pb2.py":         "x = 1\n",
		"tests/test_models.py":       "def test_a():\n    pass\n",
		"app/test_views.py":          "def test_b():\n    pass\n",
		"main.py":                    "print(1)\n",
		"build/lib/app/generated.py": "x = 1\n",
	})

	files, err := NewScanner(nil).ScanDir(root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"app/models.py",
		"app/stubs.pyi",
		"app/views.pyw",
		"main.py",
	}, relFiles(t, root, files))
}

func TestScanDirIncludeTests(t *testing.T) {
	root := t.TempDir()
	testutil.CreateFileTree(t, root, map[string]string{
		"app/models.py":        "x = 1\n",
		"tests/test_models.py": "x = 1\n",
	})

	cfg := config.DefaultConfig()
	cfg.Analysis.IncludeTests = true

	files, err := NewScanner(cfg).ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"app/models.py", "tests/test_models.py"}, relFiles(t, root, files))
}

func TestScanDirWithGitignore(t *testing.T) {
	tests := []struct {
		name      string
		gitignore bool
		want      []string
	}{
		{name: "enabled", gitignore: true, want: []string{"src/app.py"}},
		{name: "disabled", gitignore: false, want: []string{"generated/schema.py", "src/app.py", "src/local_settings.py"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0755))
			testutil.CreateFileTree(t, root, map[string]string{
				".gitignore":            "generated/\nlocal_settings.py\n",
				"src/app.py":            "x = 1\n",
				"src/local_settings.py": "DEBUG = True\n",
				"generated/schema.py":   "x = 1\n",
			})

			cfg := config.DefaultConfig()
			cfg.Exclude.Gitignore = tt.gitignore

			files, err := NewScanner(cfg).ScanDir(root)
			require.NoError(t, err)
			assert.Equal(t, tt.want, relFiles(t, root, files))
		})
	}
}

func TestScanDirGitignoreFromSubdirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0755))
	testutil.CreateFileTree(t, root, map[string]string{
		".gitignore":          "pkg/skip/\n",
		"pkg/keep/a.py":       "x = 1\n",
		"pkg/skip/b.py":       "x = 1\n",
		"pkg/skip/nested.txt": "",
	})

	sub := filepath.Join(root, "pkg")
	files, err := NewScanner(nil).ScanDir(sub)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep/a.py"}, relFiles(t, sub, files))
}

func TestScanDirEmptyDirectory(t *testing.T) {
	files, err := NewScanner(nil).ScanDir(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScanDirMissingRoot(t *testing.T) {
	_, err := NewScanner(nil).ScanDir(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestScanDirWithSymlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	testutil.WriteFile(t, filepath.Join(root, "real.py"), "x = 1\n")
	testutil.WriteFile(t, filepath.Join(outside, "secret.py"), "x = 1\n")

	if err := os.Symlink(filepath.Join(root, "real.py"), filepath.Join(root, "link.py")); err != nil {
		t.Skip("Symlinks not supported on this system")
	}
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.py"), filepath.Join(root, "escape.py")))
	require.NoError(t, os.Symlink("/nonexistent/path/file.py", filepath.Join(root, "dangling.py")))

	files, err := NewScanner(nil).ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"link.py", "real.py"}, relFiles(t, root, files))
}

func TestScanPaths(t *testing.T) {
	root := t.TempDir()
	testutil.CreateFileTree(t, root, map[string]string{
		"pkg/a.py":        "x = 1\n",
		"test_explicit.py": "x = 1\n",
		"notes.txt":       "",
	})

	files, err := NewScanner(nil).ScanPaths([]string{
		filepath.Join(root, "pkg"),
		filepath.Join(root, "test_explicit.py"),
		filepath.Join(root, "notes.txt"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/a.py", "test_explicit.py"}, relFiles(t, root, files))

	_, err = NewScanner(nil).ScanPaths([]string{filepath.Join(root, "missing.py")})
	assert.Error(t, err)
}

func TestFilterPaths(t *testing.T) {
	got := NewScanner(nil).FilterPaths([]string{
		"app/models.py",
		"app/__pycache__/models.py",
		"api/service_pb2.py",
		"tests/test_app.py",
		"docs/index.md",
		"setup.py",
	})
	assert.Equal(t, []string{"app/models.py", "setup.py"}, got)
}

func TestIsWithinRoot(t *testing.T) {
	tests := []struct {
		path string
		root string
		want bool
	}{
		{"/repo/src/a.py", "/repo", true},
		{"/repo", "/repo", true},
		{"/repo2/a.py", "/repo", false},
		{"/other/a.py", "/repo", false},
		{"/repo/../etc/passwd", "/repo", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, isWithinRoot(tt.path, tt.root))
		})
	}
}

func TestFindGitRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0755))
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0755))

	assert.Equal(t, root, findGitRoot(sub))
	assert.Equal(t, "", findGitRoot(t.TempDir()))
}
