package imageref

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/northcutted/dock-deps/pkg/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want types.ImageIdentity
	}{
		{"official image with tag", "alpine:3.18", types.ImageIdentity{Name: "alpine", Version: "3.18"}},
		{"bare official image", "node", types.ImageIdentity{Name: "node", Version: "latest"}},
		{"namespaced without tag", "myrepo/image", types.ImageIdentity{Name: "myrepo/image", Version: "latest"}},
		{"namespaced with tag", "myrepo/image:1.0", types.ImageIdentity{Name: "myrepo/image", Version: "1.0"}},
		{"registry port without tag", "localhost:5000/image", types.ImageIdentity{Name: "localhost:5000/image", Version: "latest"}},
		{"registry port with tag", "localhost:5000/image:2", types.ImageIdentity{Name: "localhost:5000/image", Version: "2"}},
		{"tarball", "image.tar", types.ImageIdentity{Name: "image.tar", Version: ""}},
		{"tarball in directory", "/tmp/archives/image.tar", types.ImageIdentity{Name: "/tmp/archives/image.tar", Version: ""}},
		{"digest marker", "image@sha256", types.ImageIdentity{Name: "image", Version: ""}},
		{"digest with value", "image@sha256:abcdef", types.ImageIdentity{Name: "image", Version: ""}},
		{"empty reference", "", types.ImageIdentity{Name: "", Version: "latest"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.ref))
		})
	}
}

func TestParse_RootName(t *testing.T) {
	assert.Equal(t, "docker-image|debian", Parse("debian:bookworm").RootName())
}
