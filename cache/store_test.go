package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michaelzixizhou/codag-sub002/graph"
)

func nodeIn(file, id string) graph.Node {
	return graph.Node{
		ID:     id,
		Kind:   "llm",
		Label:  id,
		Source: &graph.SourceLocation{File: file, Line: 1},
	}
}

func TestStore_SetAndMerge(t *testing.T) {
	s := NewStore()
	s.SetAnalysisResult(graph.Workflow{
		Nodes: []graph.Node{nodeIn("a.py", "a1"), nodeIn("b.py", "b1")},
		Edges: []graph.Edge{{Source: "a1", Target: "b1", Label: "prompt"}},
	}, map[string]string{"a.py": "aaa", "b.py": "bbb"})

	merged := s.MergedGraph()
	assert.Len(t, merged.Nodes, 2)
	require.Len(t, merged.Edges, 1)
	assert.Equal(t, "a1", merged.Edges[0].Source)
}

func TestStore_InvalidateFile(t *testing.T) {
	s := NewStore()
	s.SetAnalysisResult(graph.Workflow{
		Nodes: []graph.Node{nodeIn("a.py", "a1"), nodeIn("b.py", "b1")},
		Edges: []graph.Edge{{Source: "a1", Target: "b1"}},
	}, map[string]string{"a.py": "aaa", "b.py": "bbb"})

	s.InvalidateFile("a.py")

	merged := s.MergedGraph()
	require.Len(t, merged.Nodes, 1)
	assert.Equal(t, "b1", merged.Nodes[0].ID)
	// The a1→b1 edge dangles once a.py is gone.
	assert.Empty(t, merged.Edges)
	assert.Equal(t, []string{"b.py"}, s.CachedFiles())
}

func TestStore_ReplaceFragmentAtomically(t *testing.T) {
	s := NewStore()
	s.SetAnalysisResult(graph.Workflow{
		Nodes: []graph.Node{nodeIn("a.py", "old")},
	}, map[string]string{"a.py": "v1"})
	s.SetAnalysisResult(graph.Workflow{
		Nodes: []graph.Node{nodeIn("a.py", "new")},
	}, map[string]string{"a.py": "v2"})

	merged := s.MergedGraph()
	require.Len(t, merged.Nodes, 1)
	assert.Equal(t, "new", merged.Nodes[0].ID)
}

func TestStore_MergeFilter(t *testing.T) {
	s := NewStore()
	s.SetAnalysisResult(graph.Workflow{Nodes: []graph.Node{nodeIn("a.py", "a1")}},
		map[string]string{"a.py": "aaa"})
	s.SetAnalysisResult(graph.Workflow{Nodes: []graph.Node{nodeIn("b.py", "b1")}},
		map[string]string{"b.py": "bbb"})

	merged := s.MergedGraph("b.py")
	require.Len(t, merged.Nodes, 1)
	assert.Equal(t, "b1", merged.Nodes[0].ID)
}

func TestStore_NodeWithoutSourceFallsToFirstPath(t *testing.T) {
	s := NewStore()
	s.SetAnalysisResult(graph.Workflow{
		Nodes: []graph.Node{{ID: "orphan", Kind: "output", Label: "result"}},
	}, map[string]string{"z.py": "zzz", "a.py": "aaa"})

	s.InvalidateFile("a.py")
	assert.Empty(t, s.MergedGraph().Nodes)
}

func TestStore_HasChanged(t *testing.T) {
	s := NewStore()
	assert.True(t, s.HasChanged("a.py", []byte("aaa")))

	s.SetAnalysisResult(graph.Workflow{}, map[string]string{"a.py": "aaa"})
	assert.False(t, s.HasChanged("a.py", []byte("aaa")))
	assert.True(t, s.HasChanged("a.py", []byte("changed")))
}

func TestStore_MergeDeduplicatesAcrossFragments(t *testing.T) {
	// Two batches may both report the same node and edge; the merged view
	// carries each once, first write winning.
	s := NewStore()
	s.SetAnalysisResult(graph.Workflow{
		Nodes: []graph.Node{nodeIn("a.py", "shared"), nodeIn("a.py", "a1")},
		Edges: []graph.Edge{{Source: "a1", Target: "shared", Label: "prompt"}},
	}, map[string]string{"a.py": "aaa"})
	s.SetAnalysisResult(graph.Workflow{
		Nodes: []graph.Node{{ID: "shared", Kind: "llm", Label: "later", Source: &graph.SourceLocation{File: "b.py"}}, nodeIn("b.py", "b1")},
		Edges: []graph.Edge{{Source: "a1", Target: "shared", Label: "prompt"}},
	}, map[string]string{"b.py": "bbb"})

	merged := s.MergedGraph()
	require.Len(t, merged.Nodes, 3)
	assert.Equal(t, "shared", merged.Nodes[0].Label)
	assert.Len(t, merged.Edges, 1)
}

type countingDisk struct {
	frags   map[string]Fragment
	saves   map[string]int
	deletes int
}

func newCountingDisk() *countingDisk {
	return &countingDisk{frags: make(map[string]Fragment), saves: make(map[string]int)}
}

func (d *countingDisk) SaveFragment(path string, frag Fragment) error {
	d.saves[path]++
	d.frags[path] = frag
	return nil
}

func (d *countingDisk) DeleteFragment(path string) error {
	d.deletes++
	delete(d.frags, path)
	return nil
}

func (d *countingDisk) LoadAll() (map[string]Fragment, error) {
	out := make(map[string]Fragment, len(d.frags))
	for path, frag := range d.frags {
		out[path] = frag
	}
	return out, nil
}

func TestFlush_SkipsUnchangedFragments(t *testing.T) {
	disk := newCountingDisk()
	s := NewStore(WithDiskStore(disk, time.Hour))

	s.SetAnalysisResult(graph.Workflow{
		Nodes: []graph.Node{nodeIn("a.py", "a1")},
	}, map[string]string{"a.py": "v1"})
	s.Flush()
	assert.Equal(t, 1, disk.saves["a.py"])

	// Re-committing an identical fragment dirties the path but writes
	// nothing new to disk.
	s.SetAnalysisResult(graph.Workflow{
		Nodes: []graph.Node{nodeIn("a.py", "a1")},
	}, map[string]string{"a.py": "v1"})
	s.Flush()
	assert.Equal(t, 1, disk.saves["a.py"])

	s.SetAnalysisResult(graph.Workflow{
		Nodes: []graph.Node{nodeIn("a.py", "a2")},
	}, map[string]string{"a.py": "v2"})
	s.Flush()
	assert.Equal(t, 2, disk.saves["a.py"])
}

func TestFlush_WarmSeedsFingerprints(t *testing.T) {
	disk := newCountingDisk()
	first := NewStore(WithDiskStore(disk, time.Hour))
	first.SetAnalysisResult(graph.Workflow{
		Nodes: []graph.Node{nodeIn("a.py", "a1")},
	}, map[string]string{"a.py": "v1"})
	first.Flush()
	require.Equal(t, 1, disk.saves["a.py"])

	// A warmed store re-committing the same fragment must not rewrite it.
	warmed := NewStore(WithDiskStore(disk, time.Hour))
	require.NoError(t, warmed.Warm())
	warmed.SetAnalysisResult(graph.Workflow{
		Nodes: []graph.Node{nodeIn("a.py", "a1")},
	}, map[string]string{"a.py": "v1"})
	warmed.Flush()
	assert.Equal(t, 1, disk.saves["a.py"])
}

func TestStore_DiskRoundTrip(t *testing.T) {
	disk, err := OpenDiskStore("")
	require.NoError(t, err)
	defer disk.Close()

	s := NewStore(WithDiskStore(disk, 10*time.Millisecond))
	s.SetAnalysisResult(graph.Workflow{
		Nodes: []graph.Node{nodeIn("a.py", "a1")},
	}, map[string]string{"a.py": "aaa"})
	s.Flush()

	warmed := NewStore(WithDiskStore(disk, 10*time.Millisecond))
	require.NoError(t, warmed.Warm())
	merged := warmed.MergedGraph()
	require.Len(t, merged.Nodes, 1)
	assert.Equal(t, "a1", merged.Nodes[0].ID)

	warmed.InvalidateFile("a.py")
	warmed.Flush()
	loaded, err := disk.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
