package depgraph

import "errors"

var (
	// ErrTooManyPaths is returned by Mitigate when the graph is still at or
	// above the path threshold after pruning. Callers decide whether to keep
	// the unpruned graph or fail.
	ErrTooManyPaths = errors.New("dependency graph has too many paths to root even after pruning")

	// ErrNodeNotFound is returned when an edge references a node that was
	// never added.
	ErrNodeNotFound = errors.New("node not found")
)
