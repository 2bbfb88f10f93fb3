package scanner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

// defaultSkipDirs are directories never worth descending into, independent
// of any .gitignore content.
var defaultSkipDirs = []string{
	".git", ".svn", ".hg",
	"node_modules", "__pycache__", "vendor",
	"dist", "build", "out", "target",
	".venv", "venv", ".tox",
	".idea", ".vscode", ".next", ".nuxt",
	"coverage", ".cache",
}

// Ignore decides which paths are excluded from scanning and watching. It
// layers the default directory skip list, the workspace .gitignore, and any
// configured exclusion globs.
type Ignore struct {
	root      string
	gitIgnore gitignore.GitIgnore
	globs     []string
}

// NewIgnore builds the exclusion matcher for a workspace root.
func NewIgnore(root string, globs []string) *Ignore {
	return &Ignore{
		root:      root,
		gitIgnore: loadGitIgnore(filepath.Join(root, ".gitignore"), root),
		globs:     globs,
	}
}

func loadGitIgnore(path, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	return gitignore.New(f, baseDir, nil)
}

// SkipDir reports whether a directory should be pruned from a walk.
func (m *Ignore) SkipDir(path string) bool {
	name := filepath.Base(path)
	for _, skip := range defaultSkipDirs {
		if name == skip {
			return true
		}
	}
	return m.Ignored(path, true)
}

// Ignored reports whether path is excluded by .gitignore or the configured
// exclusion globs. Paths are matched relative to the workspace root with
// forward slashes.
func (m *Ignore) Ignored(path string, isDir bool) bool {
	rel, err := filepath.Rel(m.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	if m.gitIgnore != nil {
		if match := m.gitIgnore.Relative(rel, isDir); match != nil && match.Ignore() {
			return true
		}
	}
	for _, pattern := range m.globs {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, filepath.Base(rel)); err == nil && ok {
			return true
		}
	}
	return false
}

// hiddenEntry reports whether a walk entry is a dotfile other than the
// workspace root itself.
func hiddenEntry(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
