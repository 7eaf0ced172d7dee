package renderer

import (
	"encoding/json"
	"fmt"

	"github.com/northcutted/dock-deps/pkg/depgraph"
	"github.com/northcutted/dock-deps/pkg/deptree"
	"github.com/northcutted/dock-deps/pkg/scan"
)

// GraphSchemaVersion is the schema version of the graph document.
const GraphSchemaVersion = "1.2.0"

// GraphDocument is the serialized form of a dependency graph.
type GraphDocument struct {
	SchemaVersion string              `json:"schemaVersion"`
	PkgManager    depgraph.PkgManager `json:"pkgManager"`
	Pkgs          []PkgEntry          `json:"pkgs"`
	Graph         GraphBody           `json:"graph"`
}

type PkgEntry struct {
	ID   string           `json:"id"`
	Info depgraph.PkgInfo `json:"info"`
}

type GraphBody struct {
	RootNodeID string      `json:"rootNodeId"`
	Nodes      []NodeEntry `json:"nodes"`
}

type NodeEntry struct {
	NodeID string    `json:"nodeId"`
	PkgID  string    `json:"pkgId"`
	Deps   []NodeRef `json:"deps"`
}

type NodeRef struct {
	NodeID string `json:"nodeId"`
}

// ScanDocument is the combined scan output.
type ScanDocument struct {
	ScanID      string         `json:"scanId"`
	Image       string         `json:"image"`
	ImageID     string         `json:"imageId,omitempty"`
	ImageLayers []string       `json:"imageLayers,omitempty"`
	Pruned      bool           `json:"pruned"`
	TooLarge    bool           `json:"tooLarge,omitempty"`
	DepGraph    *GraphDocument `json:"depGraph"`
	DepTree     *deptree.Node  `json:"depTree,omitempty"`
}

// NewGraphDocument converts g into its serialized form.
func NewGraphDocument(g *depgraph.Graph) *GraphDocument {
	doc := &GraphDocument{
		SchemaVersion: GraphSchemaVersion,
		PkgManager:    g.PkgManager(),
		Graph:         GraphBody{RootNodeID: g.RootID()},
	}
	for _, p := range g.Pkgs() {
		doc.Pkgs = append(doc.Pkgs, PkgEntry{ID: p.ID(), Info: p})
	}
	for _, n := range g.Nodes() {
		entry := NodeEntry{NodeID: n.ID, PkgID: n.Pkg.ID(), Deps: make([]NodeRef, 0)}
		for _, child := range g.Children(n.ID) {
			entry.Deps = append(entry.Deps, NodeRef{NodeID: child})
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, entry)
	}
	return doc
}

// GraphJSON renders g as an indented graph document.
func GraphJSON(g *depgraph.Graph) ([]byte, error) {
	return marshal(NewGraphDocument(g))
}

// TreeJSON renders a legacy dependency tree.
func TreeJSON(tree *deptree.Node) ([]byte, error) {
	if tree == nil {
		return nil, fmt.Errorf("no dependency tree to render")
	}
	return marshal(tree)
}

// ScanJSON renders the full scan result.
func ScanJSON(res *scan.Result) ([]byte, error) {
	doc := ScanDocument{
		ScanID:      res.ScanID,
		Image:       res.Image.Name + imageTagSuffix(res.Image.Version),
		ImageID:     res.ImageID,
		ImageLayers: res.Layers,
		Pruned:      res.Pruned,
		TooLarge:    res.TooLarge,
		DepGraph:    NewGraphDocument(res.Graph),
		DepTree:     res.Tree,
	}
	return marshal(doc)
}

func imageTagSuffix(version string) string {
	if version == "" {
		return ""
	}
	return ":" + version
}

func marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}
