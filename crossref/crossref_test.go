package crossref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michaelzixizhou/codag-sub002/extract"
)

func analysisFor(path string, imports, exports []string) *extract.FileAnalysis {
	a := extract.NewFileAnalysis(path)
	a.Imports = imports
	a.Exports = exports
	return a
}

func TestBuildMetadata_ImportMatchesStem(t *testing.T) {
	analyses := []*extract.FileAnalysis{
		analysisFor("src/a.ts", nil, []string{"runAgent"}),
		analysisFor("src/b.ts", []string{"./a"}, nil),
		analysisFor("src/unrelated.ts", []string{"express"}, nil),
	}

	metadata := NewBuilder(extract.NewExtractor(nil)).BuildMetadata(analyses)

	require.Len(t, metadata, 3)
	assert.Equal(t, []string{"src/b.ts"}, metadata[0].RelatedFiles)
	assert.Equal(t, []string{"src/a.ts"}, metadata[1].RelatedFiles)
	assert.Empty(t, metadata[2].RelatedFiles)
}

func TestBuildMetadata_Symmetric(t *testing.T) {
	analyses := []*extract.FileAnalysis{
		analysisFor("helpers.py", nil, []string{"call_llm"}),
		analysisFor("main.py", []string{"helpers"}, nil),
	}

	metadata := NewBuilder(extract.NewExtractor(nil)).BuildMetadata(analyses)

	assert.Contains(t, metadata[0].RelatedFiles, "main.py")
	assert.Contains(t, metadata[1].RelatedFiles, "helpers.py")
}

func TestBuildAnalyses_OrderPreserved(t *testing.T) {
	files := []SourceFile{
		{Path: "one.py", Content: []byte("import os\n")},
		{Path: "two.py", Content: []byte("import sys\n")},
		{Path: "three.py", Content: []byte("import json\n")},
	}

	analyses := NewBuilder(extract.NewExtractor(nil)).BuildAnalyses(files)

	require.Len(t, analyses, 3)
	assert.Equal(t, "one.py", analyses[0].FilePath)
	assert.Equal(t, "two.py", analyses[1].FilePath)
	assert.Equal(t, "three.py", analyses[2].FilePath)
}

func TestExpandRelated_DepthCap(t *testing.T) {
	metadata := []FileMetadata{
		{File: "a", RelatedFiles: []string{"b"}},
		{File: "b", RelatedFiles: []string{"a", "c"}},
		{File: "c", RelatedFiles: []string{"b", "d"}},
		{File: "d", RelatedFiles: []string{"c"}},
	}

	assert.Equal(t, []string{"b"}, ExpandRelated("a", metadata, 1))
	assert.Equal(t, []string{"b", "c"}, ExpandRelated("a", metadata, 2))
	assert.Equal(t, []string{"b", "c", "d"}, ExpandRelated("a", metadata, 3))
	// Cycles terminate through the visited set.
	assert.Equal(t, []string{"b", "c", "d"}, ExpandRelated("a", metadata, 10))
}
