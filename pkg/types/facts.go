package types

// ImageFacts collects what the collaborator runners learned about an image.
// Each runner fills the fields it knows; the analyzer merges them.
type ImageFacts struct {
	ImageTag       string
	ImageID        string
	Architecture   string
	OS             string
	Layers         []string
	OSRelease      OSRelease
	PackageManager string
	Packages       []*PackageRecord
}

// Merge copies every non-empty field of src into f.
func (f *ImageFacts) Merge(src *ImageFacts) {
	if src == nil {
		return
	}
	if src.ImageTag != "" {
		f.ImageTag = src.ImageTag
	}
	if src.ImageID != "" {
		f.ImageID = src.ImageID
	}
	if src.Architecture != "" {
		f.Architecture = src.Architecture
	}
	if src.OS != "" {
		f.OS = src.OS
	}
	if len(src.Layers) > 0 {
		f.Layers = src.Layers
	}
	if src.OSRelease != (OSRelease{}) {
		f.OSRelease = src.OSRelease
	}
	if src.PackageManager != "" {
		f.PackageManager = src.PackageManager
	}
	if len(src.Packages) > 0 {
		f.Packages = append(f.Packages, src.Packages...)
	}
}
