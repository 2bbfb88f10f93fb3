// Package batch partitions files into analysis batches. Files that
// cross-reference each other are kept in one batch wherever the size limits
// allow, so the remote analyzer can resolve cross-file call and data edges
// in a single pass.
package batch

import (
	"sort"

	"github.com/michaelzixizhou/codag-sub002/crossref"
)

// Batch is an ordered group of files submitted together to the remote
// analyzer.
type Batch struct {
	Files           []crossref.SourceFile
	EstimatedTokens int
}

// Paths returns the batch's file paths in order.
func (b Batch) Paths() []string {
	paths := make([]string, len(b.Files))
	for i, f := range b.Files {
		paths[i] = f.Path
	}
	return paths
}

// EstimateTokens approximates the token count of content at four characters
// per token, rounded up.
func EstimateTokens(content []byte) int {
	return (len(content) + 3) / 4
}

// CreateBatches partitions files into batches. Connected components of the
// relatedFiles adjacency are computed first and each component is split
// greedily in original file order when it exceeds maxBatchSize files or
// maxTokensPerBatch estimated tokens. A single file whose own estimate
// exceeds the token budget is still emitted alone: it must make progress, it
// must never cause an infinite split.
//
// The result is deterministic for identical inputs and preserves the input
// file order within every batch.
func CreateBatches(files []crossref.SourceFile, metadata []crossref.FileMetadata, maxBatchSize, maxTokensPerBatch int) []Batch {
	if len(files) == 0 {
		return nil
	}

	indexByPath := make(map[string]int, len(files))
	for i, f := range files {
		indexByPath[f.Path] = i
	}

	// Undirected adjacency over input files; every file is a node even with
	// zero edges.
	adjacency := make(map[int][]int, len(files))
	for i := range files {
		adjacency[i] = nil
	}
	for _, m := range metadata {
		from, ok := indexByPath[m.File]
		if !ok {
			continue
		}
		for _, related := range m.RelatedFiles {
			to, ok := indexByPath[related]
			if !ok {
				continue
			}
			adjacency[from] = append(adjacency[from], to)
			adjacency[to] = append(adjacency[to], from)
		}
	}

	var batches []Batch
	visited := make([]bool, len(files))
	for i := range files {
		if visited[i] {
			continue
		}
		component := collectComponent(i, adjacency, visited)
		batches = append(batches, splitComponent(component, files, maxBatchSize, maxTokensPerBatch)...)
	}
	return batches
}

// collectComponent returns the connected component containing start, as
// ascending input indexes.
func collectComponent(start int, adjacency map[int][]int, visited []bool) []int {
	stack := []int{start}
	visited[start] = true
	var component []int
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		component = append(component, node)
		for _, next := range adjacency[node] {
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	// The DFS visits in stack order; restore input order.
	sort.Ints(component)
	return component
}

// splitComponent accumulates component files into batches under both
// limits, closing the current batch when the next file would overflow it.
func splitComponent(component []int, files []crossref.SourceFile, maxBatchSize, maxTokensPerBatch int) []Batch {
	var batches []Batch
	current := Batch{}
	for _, idx := range component {
		file := files[idx]
		tokens := EstimateTokens(file.Content)
		if len(current.Files) > 0 &&
			(len(current.Files)+1 > maxBatchSize || current.EstimatedTokens+tokens > maxTokensPerBatch) {
			batches = append(batches, current)
			current = Batch{}
		}
		current.Files = append(current.Files, file)
		current.EstimatedTokens += tokens
	}
	if len(current.Files) > 0 {
		batches = append(batches, current)
	}
	return batches
}
