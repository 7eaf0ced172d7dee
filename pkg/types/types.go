// Package types holds the data model shared by the dependency graph and
// legacy tree builders and by the collaborators that feed them.
package types

// PackageRecord is one installed package as reported by a package-manager
// parser. Records are treated as read-only by every builder in this module.
type PackageRecord struct {
	Name    string `json:"name" yaml:"name" validate:"required"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	// Source is the source package a split binary package was built from.
	Source   string   `json:"source,omitempty" yaml:"source,omitempty"`
	Provides []string `json:"provides,omitempty" yaml:"provides,omitempty"`
	// Deps lists declared dependency names in declaration order. Only the
	// names take part in graph assembly; see Dependencies for metadata.
	Deps          Dependencies `json:"deps,omitempty" yaml:"deps,omitempty"`
	AutoInstalled bool         `json:"autoInstalled,omitempty" yaml:"autoInstalled,omitempty"`
}

// QualifiedName returns "source/name" when the record has a source package
// and the bare name otherwise.
func (p *PackageRecord) QualifiedName() string {
	if p.Source != "" {
		return p.Source + "/" + p.Name
	}
	return p.Name
}

// NodeID returns the graph identity "qualifiedName@version".
func (p *PackageRecord) NodeID() string {
	return p.QualifiedName() + "@" + p.Version
}

// OSRelease describes the operating system of the scanned image.
type OSRelease struct {
	Name       string `json:"name" yaml:"name"`
	Version    string `json:"version" yaml:"version"`
	PrettyName string `json:"prettyName,omitempty" yaml:"prettyName,omitempty"`
}

// Alias is the repository alias used in package-manager metadata.
func (o OSRelease) Alias() string {
	return o.Name + ":" + o.Version
}

// ImageIdentity is the synthetic root package derived from an image reference.
type ImageIdentity struct {
	Name    string
	Version string
}

// RootPrefix marks the synthetic root so it is never mistaken for a real package.
const RootPrefix = "docker-image|"

// RootName returns the package name used for the synthetic image root.
func (i ImageIdentity) RootName() string {
	return RootPrefix + i.Name
}
