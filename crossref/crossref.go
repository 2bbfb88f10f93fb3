// Package crossref links per-file analyses into a relatedFiles adjacency by
// matching import targets against file paths and exported symbols. Matching
// is substring-based and deliberately permissive: a missed relation can split
// files the remote analyzer must see together, while a spurious one only
// grows a batch.
package crossref

import (
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/michaelzixizhou/codag-sub002/extract"
)

// SourceFile pairs a workspace-relative path with its content.
type SourceFile struct {
	Path    string
	Content []byte
}

// FileMetadata is the post-cross-reference view of one file, read-only once
// built.
type FileMetadata struct {
	File         string                 `json:"file"`
	Locations    []extract.CodeLocation `json:"locations"`
	RelatedFiles []string               `json:"relatedFiles"`
}

// Builder runs the two-pass metadata construction.
type Builder struct {
	extractor   *extract.Extractor
	parallelism int
}

// NewBuilder returns a builder using the given extractor for pass 1.
func NewBuilder(extractor *extract.Extractor) *Builder {
	return &Builder{
		extractor:   extractor,
		parallelism: runtime.NumCPU(),
	}
}

// BuildAnalyses is pass 1: every file analyzed independently. The work is
// embarrassingly parallel and the output order matches the input order.
func (b *Builder) BuildAnalyses(files []SourceFile) []*extract.FileAnalysis {
	analyses := make([]*extract.FileAnalysis, len(files))
	var g errgroup.Group
	g.SetLimit(b.parallelism)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			analyses[i] = b.extractor.Analyze(file.Content, file.Path)
			return nil
		})
	}
	// Analyze never fails by contract.
	_ = g.Wait()
	return analyses
}

// BuildMetadata is pass 2: cross-reference every file's imports and exports
// against all other analyzed files. The relation is symmetric by
// construction since both directions are checked.
func (b *Builder) BuildMetadata(analyses []*extract.FileAnalysis) []FileMetadata {
	metadata := make([]FileMetadata, len(analyses))
	for i, analysis := range analyses {
		related := make(map[string]bool)
		for j, other := range analyses {
			if i == j {
				continue
			}
			if filesRelated(analysis, other) || filesRelated(other, analysis) {
				related[other.FilePath] = true
			}
		}
		metadata[i] = FileMetadata{
			File:         analysis.FilePath,
			Locations:    analysis.Locations,
			RelatedFiles: orderedKeys(related, analyses),
		}
	}
	return metadata
}

// Build runs both passes.
func (b *Builder) Build(files []SourceFile) ([]*extract.FileAnalysis, []FileMetadata) {
	analyses := b.BuildAnalyses(files)
	return analyses, b.BuildMetadata(analyses)
}

// filesRelated reports whether a's imports reach b: either an import target
// textually matches b's path or stem, or b imports a's stem while a exports
// at least one symbol.
func filesRelated(a, b *extract.FileAnalysis) bool {
	bStem := fileStem(b.FilePath)
	for _, imp := range a.Imports {
		if strings.Contains(b.FilePath, imp) || strings.Contains(imp, bStem) {
			return true
		}
	}
	if len(a.Exports) > 0 {
		aStem := fileStem(a.FilePath)
		for _, imp := range b.Imports {
			if strings.Contains(imp, aStem) {
				return true
			}
		}
	}
	return false
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// orderedKeys returns the related set in the deterministic order the files
// were analyzed in.
func orderedKeys(set map[string]bool, analyses []*extract.FileAnalysis) []string {
	var out []string
	for _, analysis := range analyses {
		if set[analysis.FilePath] {
			out = append(out, analysis.FilePath)
		}
	}
	return out
}
