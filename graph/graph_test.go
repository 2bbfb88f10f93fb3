package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnion_DeduplicatesNodesAndEdges(t *testing.T) {
	a := Workflow{
		Nodes: []Node{{ID: "trigger", Kind: "trigger"}, {ID: "llm", Kind: "llm", Label: "first"}},
		Edges: []Edge{{Source: "trigger", Target: "llm", Label: "prompt"}},
	}
	b := Workflow{
		Nodes: []Node{{ID: "llm", Kind: "llm", Label: "second"}, {ID: "output", Kind: "output"}},
		Edges: []Edge{
			{Source: "trigger", Target: "llm", Label: "prompt"},
			{Source: "llm", Target: "output"},
		},
	}

	merged := Union(a, b)
	require.Len(t, merged.Nodes, 3)
	require.Len(t, merged.Edges, 2)
	// First occurrence of a duplicated node wins.
	assert.Equal(t, "first", merged.Nodes[1].Label)
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, Workflow{}.IsEmpty())
	assert.False(t, Workflow{Nodes: []Node{{ID: "n"}}}.IsEmpty())
	assert.False(t, Workflow{Edges: []Edge{{Source: "a", Target: "b"}}}.IsEmpty())
}

func TestFingerprint_StableAndContentSensitive(t *testing.T) {
	w := Workflow{Nodes: []Node{{ID: "llm", Kind: "llm"}}}

	first, err := Fingerprint(w)
	require.NoError(t, err)
	second, err := Fingerprint(w)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	w.Nodes[0].Label = "chat"
	changed, err := Fingerprint(w)
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)
}
