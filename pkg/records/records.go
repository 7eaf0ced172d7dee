// Package records reads package-record documents produced by the
// package-manager parsers. A document names the package manager, the
// target OS and the flat package list; JSON and YAML are both accepted.
package records

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/northcutted/dock-deps/pkg/types"
)

// ErrUnsupportedFormat is returned for documents that are neither JSON nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported package document format")

// ErrInvalidDocument is returned when a decoded document fails validation,
// for example a package without a name.
var ErrInvalidDocument = errors.New("invalid package document")

// Document is the on-disk shape of a package list.
type Document struct {
	Image          string                 `json:"image,omitempty" yaml:"image,omitempty"`
	PackageManager string                 `json:"packageManager,omitempty" yaml:"packageManager,omitempty"`
	OS             types.OSRelease        `json:"os" yaml:"os"`
	Packages       []*types.PackageRecord `json:"packages" yaml:"packages" validate:"dive"`
}

// Format selects a decoder.
type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Load reads a document from path, choosing the decoder from the extension.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read package document %s: %w", path, err)
	}
	format := FormatAuto
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		format = FormatJSON
	case ".yaml", ".yml":
		format = FormatYAML
	}
	doc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse package document %s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a document. With FormatAuto, input starting with '{' or '['
// is treated as JSON and anything else as YAML. A bare list of packages is
// accepted as well.
func Parse(data []byte, format Format) (*Document, error) {
	if format == FormatAuto {
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
			format = FormatJSON
		} else {
			format = FormatYAML
		}
	}

	doc := &Document{}
	switch format {
	case FormatJSON:
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &doc.Packages); err != nil {
				return nil, err
			}
			break
		}
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, err
		}
	case FormatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, err
		}
		if len(node.Content) == 0 {
			break
		}
		body := node.Content[0]
		target := any(doc)
		if body.Kind == yaml.SequenceNode {
			target = &doc.Packages
		}
		if err := body.Decode(target); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err := check(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

var validate = validator.New()

// check drops null entries, then requires a name on every package.
func check(doc *Document) error {
	kept := doc.Packages[:0]
	for _, p := range doc.Packages {
		if p != nil {
			kept = append(kept, p)
		}
	}
	doc.Packages = kept
	if err := validate.Struct(doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return nil
}

// Clone deep-copies records, dropping nil entries, so a scan can work on
// them while the caller keeps its own list.
func Clone(in []*types.PackageRecord) []*types.PackageRecord {
	out := make([]*types.PackageRecord, 0, len(in))
	for _, p := range in {
		if p == nil {
			continue
		}
		c := *p
		c.Provides = append([]string(nil), p.Provides...)
		c.Deps = append(types.Dependencies(nil), p.Deps...)
		out = append(out, &c)
	}
	return out
}
