package crossref

// ExpandRelated returns every file reachable from seed through the
// relatedFiles adjacency within maxDepth hops, seed excluded. It is an
// explicit breadth-first frontier with a visited set, so termination holds
// regardless of cycles in the adjacency.
func ExpandRelated(seed string, metadata []FileMetadata, maxDepth int) []string {
	adjacency := make(map[string][]string, len(metadata))
	for _, m := range metadata {
		adjacency[m.File] = m.RelatedFiles
	}

	visited := map[string]bool{seed: true}
	frontier := []string{seed}
	var out []string

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, file := range frontier {
			for _, related := range adjacency[file] {
				if visited[related] {
					continue
				}
				visited[related] = true
				out = append(out, related)
				next = append(next, related)
			}
		}
		frontier = next
	}
	return out
}
