// Package depgraph builds the deduplicated dependency graph of an image and
// keeps its size in check.
//
// # Ownership
//
// A Graph is immutable once returned by Builder.Build and may be read from
// several goroutines. The package records it was built from are never
// written to.
//
// # Identity
//
// Package nodes are identified by "qualifiedName@version". Pruning may
// produce several instances of one package; extra instances carry a "|N"
// suffix on the node id while sharing the same package info.
package depgraph

import (
	"fmt"
	"sync"

	"github.com/northcutted/dock-deps/pkg/types"
)

// RootNodeID is the node id of the synthetic image root.
const RootNodeID = "root-node"

// PkgInfo is the package a node stands for.
type PkgInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// ID returns "name@version".
func (p PkgInfo) ID() string {
	return p.Name + "@" + p.Version
}

// Repository names where packages came from.
type Repository struct {
	Alias string `json:"alias"`
}

// PkgManager describes the package manager the graph was built for.
type PkgManager struct {
	Name         string       `json:"name"`
	Repositories []Repository `json:"repositories,omitempty"`
}

// NewPkgManager builds the descriptor for a package-manager id on a given OS.
func NewPkgManager(name string, os types.OSRelease) PkgManager {
	pm := PkgManager{Name: name}
	if os.Name != "" || os.Version != "" {
		pm.Repositories = []Repository{{Alias: os.Alias()}}
	}
	return pm
}

// Node is one package instance in the graph.
type Node struct {
	ID  string
	Pkg PkgInfo
}

// Graph is a rooted directed acyclic graph of package nodes.
type Graph struct {
	pkgManager PkgManager
	nodes      map[string]*Node
	order      []string
	children   map[string][]string
	parents    map[string][]string

	pathsOnce sync.Once
	paths     map[string]int
}

// PkgManager returns the package-manager descriptor.
func (g *Graph) PkgManager() PkgManager {
	return g.pkgManager
}

// RootID returns the id of the synthetic root node.
func (g *Graph) RootID() string {
	return RootNodeID
}

// RootPkg returns the package info of the synthetic root.
func (g *Graph) RootPkg() PkgInfo {
	return g.nodes[RootNodeID].Pkg
}

// Node looks a node up by id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns every node, root first, in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Pkgs returns the distinct packages in the graph, root included, in
// first-seen order.
func (g *Graph) Pkgs() []PkgInfo {
	seen := make(map[string]bool, len(g.order))
	var out []PkgInfo
	for _, id := range g.order {
		p := g.nodes[id].Pkg
		if seen[p.ID()] {
			continue
		}
		seen[p.ID()] = true
		out = append(out, p)
	}
	return out
}

// Children lists the direct dependencies of a node in attachment order.
func (g *Graph) Children(id string) []string {
	return g.children[id]
}

// Parents lists the nodes that depend directly on id.
func (g *Graph) Parents(id string) []string {
	return g.parents[id]
}

// NodeCount includes the root.
func (g *Graph) NodeCount() int {
	return len(g.order)
}

// EdgeCount is the number of parent -> child edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, c := range g.children {
		n += len(c)
	}
	return n
}

// Builder accumulates nodes and edges. It is not safe for concurrent use.
type Builder struct {
	g     *Graph
	edges map[[2]string]bool
}

// NewBuilder starts a graph with the given synthetic root package.
func NewBuilder(pm PkgManager, root PkgInfo) *Builder {
	g := &Graph{
		pkgManager: pm,
		nodes:      make(map[string]*Node),
		children:   make(map[string][]string),
		parents:    make(map[string][]string),
	}
	b := &Builder{g: g, edges: make(map[[2]string]bool)}
	b.AddNode(RootNodeID, root)
	return b
}

// AddNode registers a node. Re-adding an existing id is a no-op and
// reports false.
func (b *Builder) AddNode(id string, pkg PkgInfo) bool {
	if _, ok := b.g.nodes[id]; ok {
		return false
	}
	b.g.nodes[id] = &Node{ID: id, Pkg: pkg}
	b.g.order = append(b.g.order, id)
	return true
}

// HasNode reports whether id was added.
func (b *Builder) HasNode(id string) bool {
	_, ok := b.g.nodes[id]
	return ok
}

// Connect adds the edge parent -> child once. Both nodes must exist.
func (b *Builder) Connect(parent, child string) error {
	if !b.HasNode(parent) {
		return fmt.Errorf("connect %s -> %s: %w", parent, child, ErrNodeNotFound)
	}
	if !b.HasNode(child) {
		return fmt.Errorf("connect %s -> %s: %w", parent, child, ErrNodeNotFound)
	}
	key := [2]string{parent, child}
	if b.edges[key] {
		return nil
	}
	b.edges[key] = true
	b.g.children[parent] = append(b.g.children[parent], child)
	b.g.parents[child] = append(b.g.parents[child], parent)
	return nil
}

// Build returns the finished graph. The builder must not be used afterwards.
func (b *Builder) Build() *Graph {
	return b.g
}
