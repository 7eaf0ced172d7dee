package depgraph

import (
	"log/slog"

	"github.com/northcutted/dock-deps/pkg/depindex"
	"github.com/northcutted/dock-deps/pkg/spinner"
	"github.com/northcutted/dock-deps/pkg/types"
)

// Options configures Build.
type Options struct {
	Image          types.ImageIdentity
	PackageManager string
	OS             types.OSRelease
	Checkpoint     spinner.Checkpointer
	Logger         *slog.Logger
}

// Build assembles the dependency graph rooted at the image node.
//
// Every record is attached under the root, in input order. Traversal is
// depth first with one explicit stack: a node already materialized is
// connected and not expanded again, and a qualified name already on the
// current path is skipped, which breaks dependency cycles per path rather
// than globally. Because a name can appear on the path at most once, the
// stack never grows deeper than the number of distinct qualified names.
func Build(idx *depindex.Index, opts Options) *Graph {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &constructor{
		idx: idx,
		cp:  spinner.OrNoop(opts.Checkpoint),
		b: NewBuilder(NewPkgManager(opts.PackageManager, opts.OS), PkgInfo{
			Name:    opts.Image.RootName(),
			Version: opts.Image.Version,
		}),
		onPath: make(map[string]bool),
	}

	for _, rec := range idx.Records() {
		if rec == nil {
			continue
		}
		c.visit(RootNodeID, rec.Name)
		c.drain()
	}

	g := c.b.Build()
	logger.Debug("built dependency graph", "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return g
}

type graphFrame struct {
	id    string
	qname string
	deps  []string
	next  int
}

type constructor struct {
	idx    *depindex.Index
	cp     spinner.Checkpointer
	b      *Builder
	onPath map[string]bool
	stack  []graphFrame
}

// visit handles one dependency edge from parentID. New nodes are pushed so
// drain expands them. Every visited name counts towards the checkpoint,
// including dangling names and edges to nodes that already exist.
func (c *constructor) visit(parentID, depName string) {
	c.cp.Tick()
	rec, ok := c.idx.Resolve(depName)
	if !ok {
		return
	}
	qname := rec.QualifiedName()
	if c.onPath[qname] {
		return
	}
	id := rec.NodeID()
	if !c.b.AddNode(id, PkgInfo{Name: qname, Version: rec.Version}) {
		// Both ends exist: Connect cannot fail.
		_ = c.b.Connect(parentID, id)
		return
	}
	_ = c.b.Connect(parentID, id)
	c.onPath[qname] = true
	c.stack = append(c.stack, graphFrame{id: id, qname: qname, deps: rec.Deps.Names()})
}

func (c *constructor) drain() {
	for len(c.stack) > 0 {
		f := &c.stack[len(c.stack)-1]
		if f.next >= len(f.deps) {
			delete(c.onPath, f.qname)
			c.stack = c.stack[:len(c.stack)-1]
			continue
		}
		dep := f.deps[f.next]
		f.next++
		c.visit(f.id, dep)
	}
}
