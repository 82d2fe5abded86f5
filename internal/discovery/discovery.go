package discovery

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileType categorizes submission documents by encoding
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeJSON
	FileTypeYAML
)

func (ft FileType) String() string {
	switch ft {
	case FileTypeJSON:
		return "json"
	case FileTypeYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// TypePattern maps a glob pattern to a FileType. First match wins.
type TypePattern struct {
	Pattern  string
	FileType FileType
}

// SubmissionPatterns are the patterns searched for submission documents.
var SubmissionPatterns = []TypePattern{
	{"**/*.json", FileTypeJSON},
	{"**/*.{yaml,yml}", FileTypeYAML},
}

// DefaultExclude skips tool configuration and hidden directories.
var DefaultExclude = []string{
	".assessrc.*",
	"**/.assessrc.*",
	".*/**",
	"**/.*/**",
}

// File represents a discovered submission document
type File struct {
	Path     string
	RelPath  string
	Size     int64
	Type     FileType
	Contents []byte
}

// DetectFileType determines a document's type from its name.
func DetectFileType(path string) FileType {
	name := strings.ToLower(filepath.ToSlash(filepath.Base(path)))
	for _, tp := range SubmissionPatterns {
		// Patterns are rooted at **/, so match the bare name against the tail
		pattern := strings.TrimPrefix(tp.Pattern, "**/")
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return tp.FileType
		}
	}
	return FileTypeUnknown
}

// ValidateFilePath checks that path names a readable, non-empty text file and
// returns its absolute path.
func ValidateFilePath(path string) (absPath string, err error) {
	absPath, err = filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", absPath)
		}
		if os.IsPermission(err) {
			return "", fmt.Errorf("permission denied: %s", absPath)
		}
		return "", fmt.Errorf("cannot access file: %s: %w", absPath, err)
	}

	if info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", absPath)
	}

	if info.Size() == 0 {
		return "", fmt.Errorf("file is empty: %s", absPath)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return "", fmt.Errorf("cannot read file: %s: %w", absPath, err)
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil {
		return "", fmt.Errorf("cannot read file: %s: %w", absPath, err)
	}

	if bytes.Contains(buf[:n], []byte{0}) {
		return "", fmt.Errorf("file appears to be binary, not text: %s", absPath)
	}

	return absPath, nil
}

// FileDiscovery finds submission documents under a root directory
type FileDiscovery struct {
	rootPath string
	exclude  []string
}

// NewFileDiscovery creates a FileDiscovery. Exclude patterns are doublestar globs
// matched against slash-separated paths relative to rootPath, in addition to
// DefaultExclude.
func NewFileDiscovery(rootPath string, exclude []string) *FileDiscovery {
	all := make([]string, 0, len(DefaultExclude)+len(exclude))
	all = append(all, DefaultExclude...)
	all = append(all, exclude...)
	return &FileDiscovery{
		rootPath: rootPath,
		exclude:  all,
	}
}

// DiscoverFiles returns every submission document, sorted by relative path.
func (fd *FileDiscovery) DiscoverFiles() ([]File, error) {
	info, err := os.Stat(fd.rootPath)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", fd.rootPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", fd.rootPath)
	}

	seen := make(map[string]bool)
	var files []File
	for _, tp := range SubmissionPatterns {
		matches, err := doublestar.Glob(os.DirFS(fd.rootPath), tp.Pattern)
		if err != nil {
			return nil, fmt.Errorf("error evaluating pattern %s: %w", tp.Pattern, err)
		}
		for _, match := range matches {
			if seen[match] || fd.excluded(match) {
				continue
			}
			f, ok := fd.processMatch(match, tp.FileType)
			if !ok {
				continue
			}
			seen[match] = true
			files = append(files, f)
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelPath < files[j].RelPath
	})
	return files, nil
}

func (fd *FileDiscovery) excluded(relPath string) bool {
	for _, pattern := range fd.exclude {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
	}
	return false
}

// processMatch reads a glob match, returning false if it should be skipped.
func (fd *FileDiscovery) processMatch(match string, ft FileType) (File, bool) {
	fullPath := filepath.Join(fd.rootPath, filepath.FromSlash(match))

	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		return File{}, false
	}

	contents, err := os.ReadFile(fullPath)
	if err != nil {
		return File{}, false
	}

	return File{
		Path:     fullPath,
		RelPath:  match,
		Size:     info.Size(),
		Type:     ft,
		Contents: contents,
	}, true
}

// FilterPaths keeps the files whose RelPath is in paths, preserving order.
func FilterPaths(files []File, paths []string) []File {
	keep := make(map[string]bool, len(paths))
	for _, p := range paths {
		keep[p] = true
	}
	out := make([]File, 0, len(paths))
	for _, f := range files {
		if keep[f.RelPath] {
			out = append(out, f)
		}
	}
	return out
}
