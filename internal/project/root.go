package project

import (
	"os"
	"path/filepath"
)

// FindConfig climbs from startPath looking for the first of names. The search
// stops after the repository root (a directory holding .git) so a config from an
// unrelated parent project is never picked up.
func FindConfig(startPath string, names []string) (string, bool) {
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return "", false
	}

	currentDir := absPath
	for {
		for _, name := range names {
			candidate := filepath.Join(currentDir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, true
			}
		}
		if isRepoRoot(currentDir) {
			return "", false
		}

		parent := filepath.Dir(currentDir)
		if parent == currentDir {
			return "", false
		}
		currentDir = parent
	}
}

func isRepoRoot(path string) bool {
	_, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil
}
