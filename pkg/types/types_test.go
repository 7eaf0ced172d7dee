package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestPackageRecord_Identity(t *testing.T) {
	tests := []struct {
		name      string
		record    PackageRecord
		qualified string
		nodeID    string
	}{
		{"bare", PackageRecord{Name: "bash", Version: "5.2"}, "bash", "bash@5.2"},
		{"with source", PackageRecord{Name: "libssl3", Version: "3.0.11", Source: "openssl"}, "openssl/libssl3", "openssl/libssl3@3.0.11"},
		{"no version", PackageRecord{Name: "virtual"}, "virtual", "virtual@"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.qualified, tt.record.QualifiedName())
			assert.Equal(t, tt.nodeID, tt.record.NodeID())
		})
	}
}

func TestDependencies_JSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"list", `{"deps":["zlib","musl","zlib"]}`, []string{"zlib", "musl"}},
		{"object keeps order", `{"deps":{"zlib":">=1.2","busybox":{"any":"thing"},"abuild":""}}`, []string{"zlib", "busybox", "abuild"}},
		{"null", `{"deps":null}`, []string{}},
		{"missing", `{}`, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec PackageRecord
			require.NoError(t, json.Unmarshal([]byte(tt.input), &rec))
			assert.Equal(t, tt.want, rec.Deps.Names())
		})
	}
}

func TestDependencies_JSONMetadata(t *testing.T) {
	var rec PackageRecord
	require.NoError(t, json.Unmarshal([]byte(`{"name":"curl","deps":{"libcurl":"= 8.4.0"}}`), &rec))
	require.Len(t, rec.Deps, 1)
	assert.Equal(t, Dependency{Name: "libcurl", Meta: "= 8.4.0"}, rec.Deps[0])
}

func TestDependencies_JSONRejectsScalar(t *testing.T) {
	var rec PackageRecord
	assert.Error(t, json.Unmarshal([]byte(`{"deps":"zlib"}`), &rec))
}

func TestDependencies_YAML(t *testing.T) {
	input := `
name: curl
deps:
  zlib: ">=1.2"
  openssl:
  ca-certificates: any
provides: [cmd:curl]
autoInstalled: true
`
	var rec PackageRecord
	require.NoError(t, yaml.Unmarshal([]byte(input), &rec))
	assert.Equal(t, []string{"zlib", "openssl", "ca-certificates"}, rec.Deps.Names())
	assert.Equal(t, ">=1.2", rec.Deps[0].Meta)
	assert.Equal(t, []string{"cmd:curl"}, rec.Provides)
	assert.True(t, rec.AutoInstalled)

	var list PackageRecord
	require.NoError(t, yaml.Unmarshal([]byte("name: a\ndeps: [b, c]\n"), &list))
	assert.Equal(t, []string{"b", "c"}, list.Deps.Names())
}

func TestDependencies_MarshalAsList(t *testing.T) {
	data, err := json.Marshal(PackageRecord{Name: "a", Deps: DepsOf("b", "c")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"a","deps":["b","c"]}`, string(data))
}

func TestOSRelease_Alias(t *testing.T) {
	assert.Equal(t, "debian:12", OSRelease{Name: "debian", Version: "12"}.Alias())
}

func TestImageFacts_Merge(t *testing.T) {
	facts := &ImageFacts{ImageTag: "alpine:3.18"}
	facts.Merge(&ImageFacts{ImageID: "sha256:abc", Layers: []string{"l1"}})
	facts.Merge(&ImageFacts{PackageManager: "apk", OSRelease: OSRelease{Name: "alpine", Version: "3.18.4"}, Packages: []*PackageRecord{{Name: "musl"}}})
	facts.Merge(nil)

	assert.Equal(t, "alpine:3.18", facts.ImageTag)
	assert.Equal(t, "sha256:abc", facts.ImageID)
	assert.Equal(t, []string{"l1"}, facts.Layers)
	assert.Equal(t, "apk", facts.PackageManager)
	assert.Equal(t, "alpine", facts.OSRelease.Name)
	assert.Len(t, facts.Packages, 1)
}
