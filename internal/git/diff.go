package git

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dotcommander/assess/internal/discovery"
)

// StagedFiles returns submission documents under rootPath that are staged for
// commit. Paths are slash-separated and relative to rootPath. Outside a git
// repository it returns an empty slice.
func StagedFiles(rootPath string) ([]string, error) {
	if !IsGitRepo(rootPath) {
		return []string{}, nil
	}
	out, err := run(rootPath, "diff", "--name-only", "--relative", "--staged")
	if err != nil {
		return nil, err
	}
	return filterSubmissions(out, rootPath), nil
}

// ChangedFiles returns submission documents under rootPath with uncommitted
// changes, staged or not, plus untracked ones.
func ChangedFiles(rootPath string) ([]string, error) {
	if !IsGitRepo(rootPath) {
		return []string{}, nil
	}

	var out string
	if _, err := run(rootPath, "rev-parse", "HEAD"); err != nil {
		// No commits yet: everything tracked counts as changed
		tracked, err := run(rootPath, "ls-files")
		if err != nil {
			return nil, err
		}
		out = tracked
	} else {
		diff, err := run(rootPath, "diff", "--name-only", "--relative", "HEAD")
		if err != nil {
			return nil, err
		}
		out = diff
	}

	untracked, err := run(rootPath, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	return filterSubmissions(out+"\n"+untracked, rootPath), nil
}

// IsGitRepo checks if the given directory is within a git repository.
func IsGitRepo(rootPath string) bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = rootPath
	return cmd.Run() == nil
}

func run(rootPath string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = rootPath
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// filterSubmissions keeps existing JSON and YAML files from git's name-only
// output, deduplicated and sorted.
func filterSubmissions(gitOutput, rootPath string) []string {
	seen := make(map[string]bool)
	files := []string{}
	for _, line := range strings.Split(gitOutput, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true

		if discovery.DetectFileType(line) == discovery.FileTypeUnknown {
			continue
		}
		// git reports deletions too
		if _, err := os.Stat(filepath.Join(rootPath, filepath.FromSlash(line))); err != nil {
			continue
		}
		files = append(files, filepath.ToSlash(line))
	}
	sort.Strings(files)
	return files
}
