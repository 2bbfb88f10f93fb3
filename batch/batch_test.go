package batch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michaelzixizhou/codag-sub002/crossref"
)

func TestCreateBatches_RelatedFilesShareBatch(t *testing.T) {
	// b.ts imports a.ts; both under limits: one batch of two, input order
	// preserved.
	files := []crossref.SourceFile{
		{Path: "a.ts", Content: []byte("export const helper = 1;\n")},
		{Path: "b.ts", Content: []byte("import { helper } from \"./a\";\n")},
	}
	metadata := []crossref.FileMetadata{
		{File: "a.ts", RelatedFiles: []string{"b.ts"}},
		{File: "b.ts", RelatedFiles: []string{"a.ts"}},
	}

	batches := CreateBatches(files, metadata, 10, 10000)

	require.Len(t, batches, 1)
	assert.Equal(t, []string{"a.ts", "b.ts"}, batches[0].Paths())
}

func TestCreateBatches_OversizeSingleton(t *testing.T) {
	// A file alone over the token budget is emitted as its own batch rather
	// than looping or being dropped.
	huge := strings.Repeat("x = llm(prompt)\n", 1000)
	files := []crossref.SourceFile{
		{Path: "small.py", Content: []byte("print('hi')\n")},
		{Path: "huge.py", Content: []byte(huge)},
	}
	metadata := []crossref.FileMetadata{
		{File: "small.py"},
		{File: "huge.py"},
	}

	batches := CreateBatches(files, metadata, 10, 100)

	require.Len(t, batches, 2)
	assert.Equal(t, []string{"small.py"}, batches[0].Paths())
	assert.Equal(t, []string{"huge.py"}, batches[1].Paths())
	assert.Greater(t, batches[1].EstimatedTokens, 100)
}

func TestCreateBatches_Partition(t *testing.T) {
	files := []crossref.SourceFile{
		{Path: "a.py", Content: []byte(strings.Repeat("a", 40))},
		{Path: "b.py", Content: []byte(strings.Repeat("b", 40))},
		{Path: "c.py", Content: []byte(strings.Repeat("c", 40))},
		{Path: "d.py", Content: []byte(strings.Repeat("d", 40))},
		{Path: "e.py", Content: []byte(strings.Repeat("e", 40))},
	}
	metadata := []crossref.FileMetadata{
		{File: "a.py", RelatedFiles: []string{"b.py", "c.py"}},
		{File: "b.py", RelatedFiles: []string{"a.py"}},
		{File: "c.py", RelatedFiles: []string{"a.py"}},
		{File: "d.py"},
		{File: "e.py"},
	}

	batches := CreateBatches(files, metadata, 2, 10000)

	// Union of all batches equals the input set exactly once each.
	seen := make(map[string]int)
	for _, b := range batches {
		assert.LessOrEqual(t, len(b.Files), 2)
		for _, f := range b.Files {
			seen[f.Path]++
		}
	}
	require.Len(t, seen, 5)
	for path, count := range seen {
		assert.Equal(t, 1, count, "file %s appeared %d times", path, count)
	}

	// Connectivity preservation before size-based splitting: the a/b/c
	// component splits into consecutive batches, never mixed with d/e.
	assert.Equal(t, []string{"a.py", "b.py"}, batches[0].Paths())
	assert.Equal(t, []string{"c.py"}, batches[1].Paths())
}

func TestCreateBatches_TokenLimitSplits(t *testing.T) {
	files := []crossref.SourceFile{
		{Path: "a.py", Content: []byte(strings.Repeat("a", 240))}, // 60 tokens
		{Path: "b.py", Content: []byte(strings.Repeat("b", 240))},
		{Path: "c.py", Content: []byte(strings.Repeat("c", 240))},
	}
	metadata := []crossref.FileMetadata{
		{File: "a.py", RelatedFiles: []string{"b.py", "c.py"}},
		{File: "b.py", RelatedFiles: []string{"a.py"}},
		{File: "c.py", RelatedFiles: []string{"a.py"}},
	}

	batches := CreateBatches(files, metadata, 10, 130)

	require.Len(t, batches, 2)
	assert.Equal(t, []string{"a.py", "b.py"}, batches[0].Paths())
	assert.Equal(t, []string{"c.py"}, batches[1].Paths())
	assert.Equal(t, 120, batches[0].EstimatedTokens)
}

func TestCreateBatches_Deterministic(t *testing.T) {
	files := []crossref.SourceFile{
		{Path: "x.py", Content: []byte("x")},
		{Path: "y.py", Content: []byte("y")},
		{Path: "z.py", Content: []byte("z")},
	}
	metadata := []crossref.FileMetadata{
		{File: "x.py", RelatedFiles: []string{"z.py"}},
		{File: "y.py"},
		{File: "z.py", RelatedFiles: []string{"x.py"}},
	}

	first := CreateBatches(files, metadata, 10, 1000)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, CreateBatches(files, metadata, 10, 1000))
	}
	// x and z share a component even though y sits between them in input
	// order.
	require.Len(t, first, 2)
	assert.Equal(t, []string{"x.py", "z.py"}, first[0].Paths())
	assert.Equal(t, []string{"y.py"}, first[1].Paths())
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(nil))
	assert.Equal(t, 1, EstimateTokens([]byte("ab")))
	assert.Equal(t, 1, EstimateTokens([]byte("abcd")))
	assert.Equal(t, 2, EstimateTokens([]byte("abcde")))
}
