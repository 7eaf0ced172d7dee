package renderer

import (
	"bytes"
	"sort"
	"text/template"

	"github.com/northcutted/dock-deps/pkg/depgraph"
	"github.com/northcutted/dock-deps/pkg/scan"
)

// ReportContext holds all data passed to the template
type ReportContext struct {
	Result   *scan.Result
	ImageTag string
	Nodes    int
	Edges    int
	Pkgs     int
	TreeSize int
	Top      []Dependent
}

// Dependent is a package together with how many nodes depend on it.
type Dependent struct {
	PkgID      string
	Dependents int
}

// TopDependents is how many of the most depended-upon packages the summary lists.
const TopDependents = 10

const defaultTemplate = `
## Dependency Graph ({{ .ImageTag }})

| Metric | Value |
|--------|-------|
| Scan ID | {{ .Result.ScanID }} |
| Package Manager | {{ .Result.PackageManager }} |
{{- if .Result.OS.Name }}
| Target OS | {{ .Result.OS.Name }}:{{ .Result.OS.Version }} |
{{- end }}
{{- if .Result.ImageID }}
| Image ID | {{ .Result.ImageID }} |
| Layers | {{ len .Result.Layers }} |
{{- end }}
| Packages | {{ .Result.PackageCount }} |
| Graph Packages | {{ .Pkgs }} |
| Graph Nodes | {{ .Nodes }} |
| Graph Edges | {{ .Edges }} |
| Paths To Root | {{ .Result.PathsBefore }}{{ if .Result.Pruned }} (pruned to {{ .Result.PathsAfter }}){{ end }} |
{{- if .Result.Tree }}
| Tree Nodes | {{ .TreeSize }} |
{{- end }}

{{- if .Result.TooLarge }}

> **Warning:** the graph is still too large after pruning ({{ .Result.PathsAfter }} paths); the unpruned graph is reported.
{{- end }}

{{- if .Top }}
<details>
<summary>Most depended-upon packages</summary>

| Package | Dependents |
|---------|------------|
{{- range .Top }}
| {{ .PkgID }} | {{ .Dependents }} |
{{- end }}
</details>
{{- else }}
*No dependencies detected.*
{{- end }}
`

// Markdown renders a summary of a scan result.
func Markdown(res *scan.Result) (string, error) {
	tmpl, err := template.New("dock-deps").Parse(defaultTemplate)
	if err != nil {
		return "", err
	}

	ctx := ReportContext{
		Result:   res,
		ImageTag: res.Image.Name + imageTagSuffix(res.Image.Version),
		Nodes:    res.Graph.NodeCount(),
		Edges:    res.Graph.EdgeCount(),
		Pkgs:     len(res.Graph.Pkgs()),
		Top:      topDependents(res.Graph, TopDependents),
	}
	if res.Tree != nil {
		ctx.TreeSize = res.Tree.Size()
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// topDependents ranks packages by the number of distinct parent nodes,
// root excluded, summed over all node instances of the package.
func topDependents(g *depgraph.Graph, limit int) []Dependent {
	counts := make(map[string]int)
	for _, n := range g.Nodes() {
		if n.ID == g.RootID() {
			continue
		}
		for _, parent := range g.Parents(n.ID) {
			if parent != g.RootID() {
				counts[n.Pkg.ID()]++
			}
		}
	}

	out := make([]Dependent, 0, len(counts))
	for id, c := range counts {
		out = append(out, Dependent{PkgID: id, Dependents: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Dependents != out[j].Dependents {
			return out[i].Dependents > out[j].Dependents
		}
		return out[i].PkgID < out[j].PkgID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
