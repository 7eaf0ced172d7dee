package deptree

import (
	"log/slog"

	"github.com/northcutted/dock-deps/pkg/depindex"
	"github.com/northcutted/dock-deps/pkg/spinner"
	"github.com/northcutted/dock-deps/pkg/types"
)

const (
	// MetaCommonPackages is the synthetic node grouping too-frequent packages.
	MetaCommonPackages = "meta-common-packages"
	metaVersion        = "meta"
)

// Options configures Build.
type Options struct {
	Image          types.ImageIdentity
	PackageManager string
	OS             types.OSRelease
	// FrequencyThreshold defaults to DefaultFrequencyThreshold when zero.
	// Negative disables grouping.
	FrequencyThreshold int
	Checkpoint         spinner.Checkpointer
	Logger             *slog.Logger
}

// Build assembles the legacy tree. Manually installed packages are attached
// under the root first, then auto-installed packages no earlier subtree
// reached. Packages above the frequency threshold are left out of every
// subtree and listed once under MetaCommonPackages.
func Build(idx *depindex.Index, opts Options) *Node {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	threshold := opts.FrequencyThreshold
	if threshold == 0 {
		threshold = DefaultFrequencyThreshold
	}

	root := NewNode(opts.Image.RootName(), opts.Image.Version)
	root.ensureDeps()
	targetOS := opts.OS
	root.TargetOS = &targetOS
	root.PackageFormatVersion = opts.PackageManager + ":0.0.1"

	var tooFrequent []string
	if threshold > 0 {
		freq := CountFrequencies(idx, CountOptions{
			SaturateAbove: threshold,
			Checkpoint:    opts.Checkpoint,
		})
		tooFrequent = freq.TooFrequent(threshold)
	}

	b := &builder{
		idx:     idx,
		cp:      spinner.OrNoop(opts.Checkpoint),
		skip:    make(map[string]bool, len(tooFrequent)),
		visited: make(map[string]bool),
		onPath:  make(map[string]bool),
	}
	for _, name := range tooFrequent {
		b.skip[name] = true
	}

	for _, rec := range idx.Records() {
		if rec == nil || rec.AutoInstalled {
			continue
		}
		if sub := b.subtree(rec.Name); sub != nil {
			root.Set(sub)
		}
	}

	// Auto-installed packages nothing depended on would otherwise vanish.
	for _, rec := range idx.Records() {
		if rec == nil || !rec.AutoInstalled {
			continue
		}
		if r, ok := idx.ByName(rec.Name); ok && b.visited[r.QualifiedName()] {
			continue
		}
		if sub := b.subtree(rec.Name); sub != nil {
			root.Set(sub)
		}
	}

	if len(tooFrequent) > 0 {
		meta := NewNode(MetaCommonPackages, metaVersion)
		meta.ensureDeps()
		for _, name := range tooFrequent {
			rec, ok := idx.ByName(name)
			if !ok {
				continue
			}
			meta.Set(NewNode(rec.QualifiedName(), rec.Version))
		}
		root.Set(meta)
		logger.Debug("grouped too frequent packages", "count", len(tooFrequent), "threshold", threshold)
	}

	return root
}

type treeFrame struct {
	node *Node
	deps []string
	next int
}

type builder struct {
	idx     *depindex.Index
	cp      spinner.Checkpointer
	skip    map[string]bool
	visited map[string]bool
	onPath  map[string]bool
	stack   []treeFrame
}

// subtree builds the tree for one top-level dependency name. Each package
// is expanded once per Build; later visits get a shallow node.
func (b *builder) subtree(depName string) *Node {
	top := b.enter(depName)
	for len(b.stack) > 0 {
		f := &b.stack[len(b.stack)-1]
		if f.next >= len(f.deps) {
			delete(b.onPath, f.node.Name)
			b.stack = b.stack[:len(b.stack)-1]
			continue
		}
		dep := f.deps[f.next]
		f.next++
		parent := f.node
		if child := b.enter(dep); child != nil {
			parent.Add(child)
		}
	}
	return top
}

// enter resolves depName and, when it is not skipped, returns its node. A
// first visit pushes a frame so its dependencies get expanded.
func (b *builder) enter(depName string) *Node {
	b.cp.Tick()
	rec, ok := b.idx.Resolve(depName)
	if !ok {
		return nil
	}
	qname := rec.QualifiedName()
	if b.onPath[qname] || b.skip[rec.Name] {
		return nil
	}
	node := NewNode(qname, rec.Version)
	if b.visited[qname] {
		return node
	}
	b.visited[qname] = true
	b.onPath[qname] = true
	b.stack = append(b.stack, treeFrame{node: node, deps: rec.Deps.Names()})
	return node
}
