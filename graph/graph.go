// Package graph defines the workflow graph model accumulated from remote
// analysis results: nodes are detected execution steps (triggers, LLM calls,
// tools, decisions, outputs) and edges carry the data flow between them.
package graph

// SourceLocation points a node or edge back at the code it was extracted from.
type SourceLocation struct {
	File     string `json:"file"`
	Function string `json:"function,omitempty"`
	Line     int    `json:"line"`
}

// Node represents one execution step in a detected workflow.
type Node struct {
	ID          string          `json:"id"`
	Kind        string          `json:"type"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	Source      *SourceLocation `json:"source,omitempty"`

	// LLM-specific attributes, populated only for llm nodes.
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// Edge represents data flow between two nodes.
type Edge struct {
	Source         string          `json:"source"`
	Target         string          `json:"target"`
	Label          string          `json:"label,omitempty"`
	DataType       string          `json:"dataType,omitempty"`
	SourceLocation *SourceLocation `json:"sourceLocation,omitempty"`
}

// Workflow is the node/edge union returned by the remote analyzer and
// accumulated in the graph cache.
type Workflow struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// IsEmpty reports whether the workflow carries no nodes and no edges.
func (w Workflow) IsEmpty() bool {
	return len(w.Nodes) == 0 && len(w.Edges) == 0
}

// Union merges b into a. Nodes are deduplicated by ID with a's occurrence
// winning; edges are deduplicated by (source, target, label).
func Union(a, b Workflow) Workflow {
	out := Workflow{}
	seenNodes := make(map[string]bool)
	for _, n := range append(append([]Node{}, a.Nodes...), b.Nodes...) {
		if seenNodes[n.ID] {
			continue
		}
		seenNodes[n.ID] = true
		out.Nodes = append(out.Nodes, n)
	}
	type edgeKey struct {
		source, target, label string
	}
	seenEdges := make(map[edgeKey]bool)
	for _, e := range append(append([]Edge{}, a.Edges...), b.Edges...) {
		key := edgeKey{e.Source, e.Target, e.Label}
		if seenEdges[key] {
			continue
		}
		seenEdges[key] = true
		out.Edges = append(out.Edges, e)
	}
	return out
}
