// Package deptree builds the legacy nested dependency tree consumed by older
// downstream tooling. The tree is a root node whose dependencies map child
// qualified names to child nodes of the same shape.
//
// Packages reached from very many places are collapsed into a synthetic
// meta-common-packages node so a few base libraries cannot blow up the
// size of the tree.
package deptree

import (
	"bytes"
	"encoding/json"

	"github.com/northcutted/dock-deps/pkg/types"
)

// Node is one entry of the legacy tree. Children keep insertion order.
type Node struct {
	Name    string
	Version string

	// Root-only metadata.
	TargetOS             *types.OSRelease
	PackageFormatVersion string

	deps  map[string]*Node
	order []string
}

// NewNode returns a leaf with no dependencies map.
func NewNode(name, version string) *Node {
	return &Node{Name: name, Version: version}
}

func (n *Node) ensureDeps() {
	if n.deps == nil {
		n.deps = make(map[string]*Node)
	}
}

// Set attaches child under its name, replacing an existing entry in place.
func (n *Node) Set(child *Node) {
	n.ensureDeps()
	if _, ok := n.deps[child.Name]; !ok {
		n.order = append(n.order, child.Name)
	}
	n.deps[child.Name] = child
}

// Add attaches child unless an entry with the same name exists. It reports
// whether child was attached.
func (n *Node) Add(child *Node) bool {
	if _, ok := n.deps[child.Name]; ok {
		return false
	}
	n.Set(child)
	return true
}

// Child returns the direct dependency registered under name.
func (n *Node) Child(name string) (*Node, bool) {
	c, ok := n.deps[name]
	return c, ok
}

// Children returns the direct dependencies in insertion order.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, len(n.order))
	for _, name := range n.order {
		out = append(out, n.deps[name])
	}
	return out
}

// Len is the number of direct dependencies.
func (n *Node) Len() int {
	return len(n.order)
}

// HasDependencies reports whether a dependencies map is present, even an
// empty one. Shallow reference nodes have none.
func (n *Node) HasDependencies() bool {
	return n.deps != nil
}

// Walk visits n and every descendant depth-first in insertion order. The
// tree is acyclic by construction.
func (n *Node) Walk(fn func(node *Node, depth int)) {
	type item struct {
		node  *Node
		depth int
	}
	stack := []item{{n, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(it.node, it.depth)
		children := it.node.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, item{children[i], it.depth + 1})
		}
	}
}

// Size counts n and all of its descendants.
func (n *Node) Size() int {
	count := 0
	n.Walk(func(*Node, int) { count++ })
	return count
}

// MarshalJSON writes the legacy shape with dependencies in insertion order.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeField(&buf, "name", n.Name, true); err != nil {
		return nil, err
	}
	if err := writeField(&buf, "version", n.Version, false); err != nil {
		return nil, err
	}
	if n.TargetOS != nil {
		if err := writeField(&buf, "targetOS", n.TargetOS, false); err != nil {
			return nil, err
		}
	}
	if n.PackageFormatVersion != "" {
		if err := writeField(&buf, "packageFormatVersion", n.PackageFormatVersion, false); err != nil {
			return nil, err
		}
	}
	if n.deps != nil {
		buf.WriteString(`,"dependencies":{`)
		for i, name := range n.order {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(name)
			if err != nil {
				return nil, err
			}
			child, err := n.deps[name].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(child)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, key string, value any, first bool) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if !first {
		buf.WriteByte(',')
	}
	buf.WriteByte('"')
	buf.WriteString(key)
	buf.WriteString(`":`)
	buf.Write(b)
	return nil
}
