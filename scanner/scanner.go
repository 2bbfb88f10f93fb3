// Package scanner enumerates candidate source files in a workspace. It
// prunes dependency and build directories, honors .gitignore plus configured
// exclusion globs, and keeps only extensions some analysis tier can read.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/viant/afs"
)

// candidateExts lists extensions worth sending through the analysis tiers.
// The structural walkers cover the script, python and go families; the rest
// are still scanned because the regex tiers can read any text.
var candidateExts = map[string]bool{
	".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".mjs": true, ".cjs": true,
	".py": true, ".go": true,
	".rb": true, ".java": true, ".php": true, ".cs": true,
	".rs": true, ".kt": true, ".swift": true, ".sh": true,
}

// IsCandidate reports whether a path carries an extension some analysis
// tier can read.
func IsCandidate(path string) bool {
	return candidateExts[filepath.Ext(path)]
}

// Scanner walks a workspace and reads its files.
type Scanner struct {
	fs           afs.Service
	exclusions   []string
	maxFileBytes int64
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithExclusions adds doublestar globs, matched against workspace-relative
// paths, whose matches are dropped from the scan.
func WithExclusions(globs []string) Option {
	return func(s *Scanner) {
		s.exclusions = append(s.exclusions, globs...)
	}
}

// WithMaxFileSize caps the size of files included in the scan.
func WithMaxFileSize(bytes int64) Option {
	return func(s *Scanner) {
		s.maxFileBytes = bytes
	}
}

// New returns a workspace scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		fs:           afs.New(),
		maxFileBytes: 1024 * 1024,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan returns the candidate files under root in deterministic order.
// Unreadable subtrees are skipped rather than failing the scan; only a
// missing or unreadable root is an error.
func (s *Scanner) Scan(ctx context.Context, root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root %v: %w", root, err)
	}
	matcher := NewIgnore(absRoot, s.exclusions)

	var paths []string
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if path != absRoot && (hiddenEntry(d.Name()) || matcher.SkipDir(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if hiddenEntry(d.Name()) || !candidateExts[filepath.Ext(path)] {
			return nil
		}
		if matcher.Ignored(path, false) {
			return nil
		}
		if info, err := d.Info(); err != nil || info.Size() > s.maxFileBytes {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to scan workspace %v: %w", root, walkErr)
	}
	sort.Strings(paths)
	return paths, nil
}

// Read returns the content of path.
func (s *Scanner) Read(ctx context.Context, path string) ([]byte, error) {
	return s.fs.DownloadWithURL(ctx, path)
}
