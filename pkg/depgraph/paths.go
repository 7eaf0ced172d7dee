package depgraph

import "math"

// CountPathsToRoot returns the number of distinct paths from id up to the
// root. The root itself has one; unknown ids have none. Counts saturate at
// math.MaxInt instead of overflowing.
func (g *Graph) CountPathsToRoot(id string) int {
	g.pathsOnce.Do(g.computePaths)
	return g.paths[id]
}

// computePaths walks the graph in topological order from the root so every
// node's count is final before its children read it.
func (g *Graph) computePaths() {
	g.paths = make(map[string]int, len(g.order))
	pending := make(map[string]int, len(g.order))
	for _, id := range g.order {
		pending[id] = len(g.parents[id])
	}

	g.paths[RootNodeID] = 1
	queue := []string{RootNodeID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range g.children[id] {
			g.paths[child] = saturatingAdd(g.paths[child], g.paths[id])
			pending[child]--
			if pending[child] == 0 {
				queue = append(queue, child)
			}
		}
	}
}

func saturatingAdd(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// PathsWeight sums CountPathsToRoot over every node, the root included,
// which is the same as summing the path counts of every package. It
// approximates how large the graph becomes for consumers that expand it
// into paths.
func PathsWeight(g *Graph) int {
	total := 0
	for _, id := range g.order {
		total = saturatingAdd(total, g.CountPathsToRoot(id))
	}
	return total
}
