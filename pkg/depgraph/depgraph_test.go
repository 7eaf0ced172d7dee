package depgraph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northcutted/dock-deps/pkg/depindex"
	"github.com/northcutted/dock-deps/pkg/types"
)

func pkg(name, version string, deps ...string) *types.PackageRecord {
	return &types.PackageRecord{Name: name, Version: version, Deps: types.DepsOf(deps...)}
}

func testOptions() Options {
	return Options{
		Image:          types.ImageIdentity{Name: "alpine", Version: "3.18"},
		PackageManager: "apk",
		OS:             types.OSRelease{Name: "alpine", Version: "3.18.4"},
	}
}

func build(records ...*types.PackageRecord) *Graph {
	return Build(depindex.New(records), testOptions())
}

// diamondChain is a -> {b1, b2} -> c -> d with every record at top level.
func diamondChain() *Graph {
	return build(
		pkg("a", "1", "b1", "b2"),
		pkg("b1", "1", "c"),
		pkg("b2", "1", "c"),
		pkg("c", "1", "d"),
		pkg("d", "1"),
	)
}

type countingCheckpoint struct{ ticks int }

func (c *countingCheckpoint) Tick() { c.ticks++ }

func TestBuild_Root(t *testing.T) {
	g := build()

	assert.Equal(t, RootNodeID, g.RootID())
	assert.Equal(t, PkgInfo{Name: "docker-image|alpine", Version: "3.18"}, g.RootPkg())
	assert.Equal(t, PkgManager{Name: "apk", Repositories: []Repository{{Alias: "alpine:3.18.4"}}}, g.PkgManager())
	assert.Equal(t, 1, g.NodeCount())
	assert.Zero(t, g.EdgeCount())
}

func TestBuild_DiamondIsShared(t *testing.T) {
	g := build(
		pkg("a", "1", "c"),
		pkg("b", "1", "c"),
		pkg("c", "2"),
	)

	var cNodes int
	for _, n := range g.Nodes() {
		if n.Pkg.Name == "c" {
			cNodes++
		}
	}
	assert.Equal(t, 1, cNodes)
	assert.ElementsMatch(t, []string{"a@1", "b@1", RootNodeID}, g.Parents("c@2"))
	assert.Equal(t, []string{"c@2"}, g.Children("a@1"))
	assert.Equal(t, []string{"c@2"}, g.Children("b@1"))
}

func TestBuild_CycleTerminates(t *testing.T) {
	g := build(
		pkg("a", "1", "b"),
		pkg("b", "1", "a"),
	)

	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, []string{"b@1"}, g.Children("a@1"))
	assert.Empty(t, g.Children("b@1"))
	assert.Equal(t, []string{"a@1", "b@1"}, g.Children(RootNodeID))
}

func TestBuild_SelfDependency(t *testing.T) {
	g := build(pkg("a", "1", "a"))

	assert.Equal(t, 2, g.NodeCount())
	assert.Empty(t, g.Children("a@1"))
}

func TestBuild_AliasResolution(t *testing.T) {
	g := build(
		pkg("busybox", "1.36", "so:libc.musl-x86_64.so.1", "so:libgone.so"),
		&types.PackageRecord{Name: "musl", Version: "1.2.4", Provides: []string{"so:libc.musl-x86_64.so.1"}},
	)

	assert.Equal(t, []string{"musl@1.2.4"}, g.Children("busybox@1.36"))
	n, ok := g.Node("musl@1.2.4")
	require.True(t, ok)
	assert.Equal(t, PkgInfo{Name: "musl", Version: "1.2.4"}, n.Pkg)
}

func TestBuild_QualifiedIdentity(t *testing.T) {
	g := build(
		&types.PackageRecord{Name: "libssl3", Version: "3.0.11", Source: "openssl", Deps: types.DepsOf("openssl")},
		pkg("openssl", "3.0.11"),
	)

	n, ok := g.Node("openssl/libssl3@3.0.11")
	require.True(t, ok)
	assert.Equal(t, "openssl/libssl3", n.Pkg.Name)
	assert.Equal(t, []string{"openssl@3.0.11"}, g.Children("openssl/libssl3@3.0.11"))
}

func TestBuild_EveryRecordUnderRoot(t *testing.T) {
	g := diamondChain()

	assert.Equal(t, []string{"a@1", "b1@1", "b2@1", "c@1", "d@1"}, g.Children(RootNodeID))
	for _, n := range g.Nodes() {
		if n.ID == RootNodeID {
			continue
		}
		assert.NotEmpty(t, g.Parents(n.ID), "node %s has no parent", n.ID)
	}
}

func TestBuild_ChildOrderFollowsDeclarations(t *testing.T) {
	g := build(
		pkg("app", "1", "zlib", "bash", "curl"),
		pkg("curl", "8"),
		pkg("bash", "5"),
		pkg("zlib", "1.3"),
	)

	assert.Equal(t, []string{"zlib@1.3", "bash@5", "curl@8"}, g.Children("app@1"))
}

func TestBuild_DuplicateAliasDoesNotDuplicateEdge(t *testing.T) {
	g := build(
		pkg("app", "1", "libz", "so:libz.so.1"),
		&types.PackageRecord{Name: "libz", Version: "1.3", Provides: []string{"so:libz.so.1"}},
	)

	assert.Equal(t, []string{"libz@1.3"}, g.Children("app@1"))
}

func TestBuild_Checkpoint(t *testing.T) {
	cp := &countingCheckpoint{}
	opts := testOptions()
	opts.Checkpoint = cp

	Build(depindex.New([]*types.PackageRecord{
		pkg("a", "1", "b1", "b2"),
		pkg("b1", "1", "c"),
		pkg("b2", "1", "c"),
		pkg("c", "1", "d"),
		pkg("d", "1"),
	}), opts)

	// five top-level visits plus one per declared edge
	assert.Equal(t, 10, cp.ticks)
}

func TestBuild_CheckpointCoversSharedAndDanglingEdges(t *testing.T) {
	cp := &countingCheckpoint{}
	opts := testOptions()
	opts.Checkpoint = cp

	records := []*types.PackageRecord{pkg("base", "1")}
	deps := make([]string, 0, 1000)
	for i := range 1000 {
		deps = append(deps, fmt.Sprintf("missing%d", i))
	}
	records = append(records, pkg("hub", "1", append(deps, "base")...))

	g := Build(depindex.New(records), opts)

	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 2+1001, cp.ticks)
}

func TestBuild_DeepChain(t *testing.T) {
	const depth = 20000
	records := make([]*types.PackageRecord, 0, depth)
	for i := range depth {
		var deps []string
		if i+1 < depth {
			deps = []string{fmt.Sprintf("p%d", i+1)}
		}
		records = append(records, pkg(fmt.Sprintf("p%d", i), "1", deps...))
	}

	g := build(records...)

	assert.Equal(t, depth+1, g.NodeCount())
	assert.Equal(t, []string{"p1@1"}, g.Children("p0@1"))
}

func TestCountPathsToRoot(t *testing.T) {
	g := diamondChain()

	assert.Equal(t, 1, g.CountPathsToRoot(RootNodeID))
	assert.Equal(t, 1, g.CountPathsToRoot("a@1"))
	assert.Equal(t, 2, g.CountPathsToRoot("b1@1"))
	assert.Equal(t, 2, g.CountPathsToRoot("b2@1"))
	assert.Equal(t, 5, g.CountPathsToRoot("c@1"))
	assert.Equal(t, 6, g.CountPathsToRoot("d@1"))
	assert.Zero(t, g.CountPathsToRoot("missing@0"))
	assert.Equal(t, 17, PathsWeight(g), "root counts once")
}

func TestPathsWeight_RootOnly(t *testing.T) {
	assert.Equal(t, 1, PathsWeight(build()))
}

func TestToTree(t *testing.T) {
	g := diamondChain()

	t.Run("full", func(t *testing.T) {
		tree := ToTree(g, TreeOptions{})
		a, ok := tree.Child("a")
		require.True(t, ok)
		b2, _ := a.Child("b2")
		c, ok := b2.Child("c")
		require.True(t, ok)
		_, ok = c.Child("d")
		assert.True(t, ok)
	})

	t.Run("deduplicated within top level", func(t *testing.T) {
		tree := ToTree(g, TreeOptions{DeduplicateWithinTopLevel: true})
		a, _ := tree.Child("a")
		b2, _ := a.Child("b2")
		c, ok := b2.Child("c")
		require.True(t, ok)
		assert.Zero(t, c.Len())

		top, ok := tree.Child("b2")
		require.True(t, ok)
		topC, _ := top.Child("c")
		assert.Equal(t, 1, topC.Len(), "dedup does not leak across top-level subtrees")
	})
}

func TestFromTree_SplitsShapes(t *testing.T) {
	g := Prune(diamondChain(), nil)

	assert.Equal(t, 8, g.NodeCount())
	c, ok := g.Node("c@1|1")
	require.True(t, ok)
	assert.Equal(t, PkgInfo{Name: "c", Version: "1"}, c.Pkg)
	assert.Empty(t, g.Children("c@1|1"))
	assert.Equal(t, []string{"d@1"}, g.Children("c@1"))
	assert.Len(t, g.Pkgs(), 6)
	assert.Equal(t, 16, PathsWeight(g))
}

func TestMitigate(t *testing.T) {
	t.Run("small graph unchanged", func(t *testing.T) {
		g := diamondChain()
		m, err := Mitigate(g, MitigateOptions{})
		require.NoError(t, err)
		assert.Same(t, g, m.Graph)
		assert.False(t, m.Pruned)
		assert.Equal(t, 6, m.Graph.NodeCount())
		assert.Equal(t, 10, m.Graph.EdgeCount())
		assert.Equal(t, m.WeightBefore, m.WeightAfter)
	})

	t.Run("pruned below threshold", func(t *testing.T) {
		m, err := Mitigate(diamondChain(), MitigateOptions{Threshold: 17})
		require.NoError(t, err)
		require.NotNil(t, m.Graph)
		assert.True(t, m.Pruned)
		assert.Equal(t, 17, m.WeightBefore)
		assert.Equal(t, 16, m.WeightAfter)
		assert.Less(t, PathsWeight(m.Graph), m.WeightBefore)
	})

	t.Run("still too large", func(t *testing.T) {
		m, err := Mitigate(diamondChain(), MitigateOptions{Threshold: 16})
		require.ErrorIs(t, err, ErrTooManyPaths)
		assert.Nil(t, m.Graph)
		assert.Equal(t, 16, m.WeightAfter)
	})
}

func TestMitigate_WideFanOut(t *testing.T) {
	var records []*types.PackageRecord
	for i := range 300 {
		records = append(records, pkg(fmt.Sprintf("app%d", i), "1", "libssl", "libcrypto"))
	}
	records = append(records,
		pkg("libssl", "3", "libcrypto"),
		pkg("libcrypto", "3", "libc"),
		pkg("libc", "2"),
	)
	g := build(records...)
	require.Equal(t, 1807, PathsWeight(g))

	m, err := Mitigate(g, MitigateOptions{Threshold: 1600})
	require.NoError(t, err)
	assert.True(t, m.Pruned)
	assert.Equal(t, 1507, m.WeightAfter)

	_, ok := m.Graph.Node("libcrypto@3|1")
	assert.True(t, ok, "the repeated libcrypto under each app collapses to a leaf instance")
	assert.Equal(t, 300, m.Graph.CountPathsToRoot("libcrypto@3|1"))
}

func TestBuilder_Connect(t *testing.T) {
	b := NewBuilder(PkgManager{Name: "deb"}, PkgInfo{Name: "docker-image|debian", Version: "12"})
	b.AddNode("a@1", PkgInfo{Name: "a", Version: "1"})

	require.NoError(t, b.Connect(RootNodeID, "a@1"))
	require.NoError(t, b.Connect(RootNodeID, "a@1"))
	assert.ErrorIs(t, b.Connect(RootNodeID, "ghost@1"), ErrNodeNotFound)
	assert.False(t, b.AddNode("a@1", PkgInfo{Name: "a", Version: "1"}))

	g := b.Build()
	assert.Equal(t, 1, g.EdgeCount())
}
