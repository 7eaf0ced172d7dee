package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Dependency is a declared dependency name with its opaque metadata, for
// example the version constraint the package manager recorded.
type Dependency struct {
	Name string
	Meta string
}

// Dependencies is an ordered set of declared dependencies. It decodes from
// either a list of names or a name -> metadata mapping; mapping order is
// kept for YAML input.
type Dependencies []Dependency

// DepsOf builds Dependencies from bare names, dropping duplicates.
func DepsOf(names ...string) Dependencies {
	deps := make(Dependencies, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		deps = append(deps, Dependency{Name: n})
	}
	return deps
}

// Names returns the dependency names in declaration order.
func (d Dependencies) Names() []string {
	names := make([]string, len(d))
	for i, dep := range d {
		names[i] = dep.Name
	}
	return names
}

// UnmarshalYAML accepts a sequence of names or a mapping of name -> metadata.
func (d *Dependencies) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return fmt.Errorf("failed to decode dependency list: %w", err)
		}
		*d = DepsOf(names...)
		return nil
	case yaml.MappingNode:
		deps := make(Dependencies, 0, len(node.Content)/2)
		seen := make(map[string]bool, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			name := node.Content[i].Value
			if seen[name] {
				continue
			}
			seen[name] = true
			meta := ""
			if v := node.Content[i+1]; v.Kind == yaml.ScalarNode {
				meta = v.Value
			}
			deps = append(deps, Dependency{Name: name, Meta: meta})
		}
		*d = deps
		return nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*d = nil
			return nil
		}
		return fmt.Errorf("deps must be a list or a mapping, got %q", node.Value)
	default:
		return fmt.Errorf("deps must be a list or a mapping, got yaml kind %d", node.Kind)
	}
}

// UnmarshalJSON accepts a list of names or an object of name -> metadata.
// Objects are walked token by token so key order survives.
func (d *Dependencies) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*d = nil
		return nil
	}
	if trimmed[0] == '[' {
		var names []string
		if err := json.Unmarshal(trimmed, &names); err != nil {
			return fmt.Errorf("failed to decode dependency list: %w", err)
		}
		*d = DepsOf(names...)
		return nil
	}
	if trimmed[0] != '{' {
		return fmt.Errorf("deps must be a list or an object, got %s", trimmed)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to decode deps: %w", err)
	}
	var deps Dependencies
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to decode deps: %w", err)
		}
		name, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("failed to decode metadata for dependency %q: %w", name, err)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		meta := ""
		var s string
		if json.Unmarshal(raw, &s) == nil {
			meta = s
		}
		deps = append(deps, Dependency{Name: name, Meta: meta})
	}
	*d = deps
	return nil
}

// MarshalJSON writes the names as a list.
func (d Dependencies) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Names())
}

// MarshalYAML writes the names as a list.
func (d Dependencies) MarshalYAML() (any, error) {
	return d.Names(), nil
}
