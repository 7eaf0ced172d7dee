// Package imageref derives the synthetic root package identity from a
// target image reference. It is pure string processing: no registry or
// network lookups happen here, and malformed references (for example the
// empty string) degrade to a best-effort split instead of an error.
package imageref

import (
	"strings"

	"github.com/northcutted/dock-deps/pkg/types"
)

const (
	// DefaultVersion is used when the reference carries no tag.
	DefaultVersion = "latest"

	tarSuffix    = ".tar"
	digestMarker = "@sha256"
)

// Parse splits an image reference into a name and a version.
//
// A tag can only appear in the last path segment, so a ':' is only treated
// as a tag separator when it follows the final '/', or when there is no '/'
// at all. The split happens on the last ':' so a registry port such as
// "localhost:5000/app" stays part of the name.
func Parse(ref string) types.ImageIdentity {
	id := types.ImageIdentity{Name: ref, Version: DefaultVersion}

	if hasTag(ref) {
		sep := strings.LastIndex(ref, ":")
		id.Name = ref[:sep]
		id.Version = ref[sep+1:]
	}

	if strings.HasSuffix(id.Name, tarSuffix) {
		id.Version = ""
	}

	if strings.HasSuffix(id.Name, digestMarker) {
		id.Name = strings.TrimSuffix(id.Name, digestMarker)
		id.Version = ""
	}

	return id
}

func hasTag(ref string) bool {
	finalSlash := strings.LastIndex(ref, "/")
	if finalSlash < 0 {
		return strings.Contains(ref, ":")
	}
	return strings.Contains(ref[finalSlash:], ":")
}
