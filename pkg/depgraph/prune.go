package depgraph

import (
	"log/slog"

	"github.com/northcutted/dock-deps/pkg/spinner"
)

// DefaultPathsThreshold is the path weight from which a graph gets pruned.
const DefaultPathsThreshold = 20000

// MitigateOptions configures Mitigate.
type MitigateOptions struct {
	// Threshold defaults to DefaultPathsThreshold when zero.
	Threshold  int
	Checkpoint spinner.Checkpointer
	Logger     *slog.Logger
}

// Mitigation reports what Mitigate did.
type Mitigation struct {
	// Graph is the graph to use: the input when it was small enough, the
	// pruned graph otherwise. Nil when pruning did not help.
	Graph  *Graph
	Pruned bool
	// WeightBefore and WeightAfter are PathsWeight of the input and of
	// the pruned graph. WeightAfter equals WeightBefore when no pruning ran.
	WeightBefore int
	WeightAfter  int
}

// Mitigate returns g unchanged when its path weight is below the threshold.
// Otherwise it prunes g through the deduplicated legacy tree form and
// returns the pruned graph if that brought the weight below the threshold,
// or ErrTooManyPaths if it did not.
func Mitigate(g *Graph, opts MitigateOptions) (Mitigation, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultPathsThreshold
	}

	before := PathsWeight(g)
	if before < threshold {
		return Mitigation{Graph: g, WeightBefore: before, WeightAfter: before}, nil
	}

	logger.Debug("pruning dependency graph", "paths", before, "threshold", threshold)
	pruned := Prune(g, opts.Checkpoint)
	after := PathsWeight(pruned)
	m := Mitigation{WeightBefore: before, WeightAfter: after}
	if after >= threshold {
		return m, ErrTooManyPaths
	}
	m.Graph = pruned
	m.Pruned = true
	return m, nil
}

// Prune rebuilds g from its legacy tree form with repeated subtrees
// collapsed within each top-level dependency.
func Prune(g *Graph, cp spinner.Checkpointer) *Graph {
	tree := ToTree(g, TreeOptions{DeduplicateWithinTopLevel: true, Checkpoint: cp})
	return FromTree(tree, g.PkgManager())
}
