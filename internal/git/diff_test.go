package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterSubmissions(t *testing.T) {
	tmpDir := t.TempDir()

	testFiles := map[string]bool{
		"responses/alice.json": true,
		"responses/bob.yaml":   true,
		"carol.yml":            true,
		"README.md":            false,
		"main.go":              false,
	}
	for path := range testFiles {
		fullPath := filepath.Join(tmpDir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
		require.NoError(t, os.WriteFile(fullPath, []byte("test"), 0644))
	}

	gitOutput := `responses/alice.json
responses/bob.yaml
carol.yml
README.md
main.go
deleted.json
responses/alice.json
`

	got := filterSubmissions(gitOutput, tmpDir)
	assert.Equal(t, []string{"carol.yml", "responses/alice.json", "responses/bob.yaml"}, got)
}

func TestIsGitRepo_NotRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	assert.False(t, IsGitRepo(t.TempDir()))

	files, err := ChangedFiles(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func gitInit(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "-q"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "test"},
		{"config", "commit.gpgsign", "false"},
	} {
		_, err := run(dir, args...)
		require.NoError(t, err)
	}
	return dir
}

func write(t *testing.T, dir, name string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`{"assessmentType":"seasonal","responses":{}}`+"\n"+name), 0644))
}

func TestChangedFiles(t *testing.T) {
	dir := gitInit(t)

	t.Run("no commits yet", func(t *testing.T) {
		write(t, dir, "a.json")
		_, err := run(dir, "add", "a.json")
		require.NoError(t, err)

		files, err := ChangedFiles(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.json"}, files)
	})

	_, err := run(dir, "commit", "-q", "-m", "initial")
	require.NoError(t, err)

	t.Run("clean tree", func(t *testing.T) {
		files, err := ChangedFiles(dir)
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("modified, staged and untracked", func(t *testing.T) {
		write(t, dir, "sub/b.yaml")
		write(t, dir, "sub/c.json")
		_, err := run(dir, "add", "sub/c.json")
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte("{}"), 0644))
		write(t, dir, "notes.txt")

		files, err := ChangedFiles(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.json", "sub/b.yaml", "sub/c.json"}, files)

		staged, err := StagedFiles(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"sub/c.json"}, staged)
	})

	t.Run("relative to subdirectory", func(t *testing.T) {
		files, err := ChangedFiles(filepath.Join(dir, "sub"))
		require.NoError(t, err)
		assert.Equal(t, []string{"b.yaml", "c.json"}, files)
	})
}
