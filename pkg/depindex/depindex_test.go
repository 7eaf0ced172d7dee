package depindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northcutted/dock-deps/pkg/types"
)

func TestResolve(t *testing.T) {
	musl := &types.PackageRecord{Name: "musl", Version: "1.2.4", Provides: []string{"so:libc.musl-x86_64.so.1"}}
	busybox := &types.PackageRecord{Name: "busybox", Version: "1.36", Deps: types.DepsOf("so:libc.musl-x86_64.so.1")}
	idx := New([]*types.PackageRecord{musl, busybox})

	t.Run("real name", func(t *testing.T) {
		got, ok := idx.Resolve("busybox")
		require.True(t, ok)
		assert.Same(t, busybox, got)
	})

	t.Run("provided alias", func(t *testing.T) {
		got, ok := idx.Resolve("so:libc.musl-x86_64.so.1")
		require.True(t, ok)
		assert.Same(t, musl, got)
	})

	t.Run("dangling", func(t *testing.T) {
		got, ok := idx.Resolve("so:libssl.so.3")
		assert.False(t, ok)
		assert.Nil(t, got)
	})
}

func TestResolve_RealNameBeatsAlias(t *testing.T) {
	virtual := &types.PackageRecord{Name: "mawk", Provides: []string{"awk"}}
	real := &types.PackageRecord{Name: "awk"}
	idx := New([]*types.PackageRecord{virtual, real})

	got, ok := idx.Resolve("awk")
	require.True(t, ok)
	assert.Same(t, real, got)
}

func TestNew_LastWriteWins(t *testing.T) {
	first := &types.PackageRecord{Name: "libc6", Version: "2.36", Provides: []string{"libc"}}
	second := &types.PackageRecord{Name: "libc6", Version: "2.37"}
	third := &types.PackageRecord{Name: "musl", Provides: []string{"libc"}}
	idx := New([]*types.PackageRecord{first, second, third, nil})

	got, _ := idx.ByName("libc6")
	assert.Same(t, second, got)

	alias, _ := idx.Resolve("libc")
	assert.Same(t, third, alias)

	assert.Equal(t, 2, idx.Len())
	assert.Len(t, idx.Records(), 4)
}
