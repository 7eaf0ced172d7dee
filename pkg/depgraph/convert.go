package depgraph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/northcutted/dock-deps/pkg/deptree"
	"github.com/northcutted/dock-deps/pkg/spinner"
)

// TreeOptions configures ToTree.
type TreeOptions struct {
	// DeduplicateWithinTopLevel expands a node only the first time it is
	// met under each direct child of the root; later meetings within the
	// same top-level subtree yield a leaf. Without it the tree lists every
	// path, which grows exponentially on diamond-heavy graphs.
	DeduplicateWithinTopLevel bool
	Checkpoint                spinner.Checkpointer
}

type toTreeFrame struct {
	node     *deptree.Node
	children []string
	next     int
}

// ToTree converts g into the legacy nested tree form.
func ToTree(g *Graph, opts TreeOptions) *deptree.Node {
	cp := spinner.OrNoop(opts.Checkpoint)
	rootPkg := g.RootPkg()
	root := deptree.NewNode(rootPkg.Name, rootPkg.Version)

	for _, topID := range g.Children(RootNodeID) {
		var seen map[string]bool
		if opts.DeduplicateWithinTopLevel {
			seen = make(map[string]bool)
		}

		enter := func(id string) (*deptree.Node, *toTreeFrame) {
			cp.Tick()
			n := g.nodes[id]
			node := deptree.NewNode(n.Pkg.Name, n.Pkg.Version)
			if seen != nil {
				if seen[id] {
					return node, nil
				}
				seen[id] = true
			}
			children := g.Children(id)
			if len(children) == 0 {
				return node, nil
			}
			return node, &toTreeFrame{node: node, children: children}
		}

		top, frame := enter(topID)
		root.Set(top)
		var stack []*toTreeFrame
		if frame != nil {
			stack = append(stack, frame)
		}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			if f.next >= len(f.children) {
				stack = stack[:len(stack)-1]
				continue
			}
			childID := f.children[f.next]
			f.next++
			child, childFrame := enter(childID)
			f.node.Set(child)
			if childFrame != nil {
				stack = append(stack, childFrame)
			}
		}
	}
	return root
}

type fromTreeFrame struct {
	node     *deptree.Node
	children []*deptree.Node
	next     int
	ids      []string
	shapes   []string
}

// FromTree converts a legacy tree back into a graph. Tree nodes with the
// same package and the same subtree shape become one graph node; a package
// met with differently shaped subtrees gets one node per shape, suffixed
// "|1", "|2" and so on after the first.
func FromTree(tree *deptree.Node, pm PkgManager) *Graph {
	b := NewBuilder(pm, PkgInfo{Name: tree.Name, Version: tree.Version})
	byShape := make(map[string]string)
	instances := make(map[string]int)

	// finish assigns an id to a fully converted tree node and returns its shape.
	finish := func(f *fromTreeFrame) (string, string) {
		pkg := PkgInfo{Name: f.node.Name, Version: f.node.Version}
		shape := shapeKey(pkg, f.shapes)
		if id, ok := byShape[shape]; ok {
			return id, shape
		}
		id := pkg.ID()
		if n := instances[id]; n > 0 {
			id = fmt.Sprintf("%s|%d", id, n)
		}
		instances[pkg.ID()]++
		byShape[shape] = id
		b.AddNode(id, pkg)
		for _, child := range f.ids {
			_ = b.Connect(id, child)
		}
		return id, shape
	}

	rootFrame := &fromTreeFrame{node: tree, children: tree.Children()}
	stack := []*fromTreeFrame{rootFrame}
	for len(stack) > 1 || rootFrame.next < len(rootFrame.children) {
		f := stack[len(stack)-1]
		if f.next < len(f.children) {
			child := f.children[f.next]
			f.next++
			stack = append(stack, &fromTreeFrame{node: child, children: child.Children()})
			continue
		}
		stack = stack[:len(stack)-1]
		id, shape := finish(f)
		parent := stack[len(stack)-1]
		parent.ids = append(parent.ids, id)
		parent.shapes = append(parent.shapes, shape)
	}

	for _, id := range rootFrame.ids {
		_ = b.Connect(RootNodeID, id)
	}
	return b.Build()
}

func shapeKey(pkg PkgInfo, childShapes []string) string {
	sorted := append([]string(nil), childShapes...)
	sort.Strings(sorted)
	h := sha256.New()
	h.Write([]byte(pkg.Name))
	h.Write([]byte{0})
	h.Write([]byte(pkg.Version))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(sorted, ",")))
	return hex.EncodeToString(h.Sum(nil))
}
