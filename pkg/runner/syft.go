package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/northcutted/dock-deps/pkg/types"
)

// SyftRunner runs 'syft <image> -o json' and turns the OS package
// artifacts into package records.
type SyftRunner struct {
	Timeout time.Duration
	binary  string
}

// Name returns the display name for this runner.
func (r *SyftRunner) Name() string { return "syft" }

// IsAvailable checks whether the syft binary is installed.
func (r *SyftRunner) IsAvailable() bool {
	if path, err := lookupTool("syft"); err == nil {
		r.binary = path
		return true
	}
	return false
}

// Run executes 'syft <image> -o json' and parses the result.
// The provided context is used as the parent for the command timeout.
func (r *SyftRunner) Run(ctx context.Context, image string, verbose bool) (*types.ImageFacts, error) {
	if r.binary == "" {
		if !r.IsAvailable() {
			return nil, fmt.Errorf("syft not found")
		}
	}
	runCtx, cancel := withTimeout(ctx, r.Timeout, TimeoutScan)
	defer cancel()
	cmd := exec.CommandContext(runCtx, r.binary, image, "-o", "json")
	output, err := runCommand(cmd, verbose)
	if err != nil {
		return nil, err
	}

	return parseSyftOutput(output)
}

// osPackageTypes are the syft artifact types backed by an OS package database.
var osPackageTypes = map[string]bool{
	"apk": true,
	"deb": true,
	"rpm": true,
}

type syftMetadata struct {
	Source           string   `json:"source"`
	OriginPackage    string   `json:"originPackage"`
	Provides         []string `json:"provides"`
	Depends          []string `json:"depends"`
	PreDepends       []string `json:"preDepends"`
	PullDependencies []string `json:"pullDependencies"`
	Requires         []string `json:"requires"`
}

// parseSyftOutput parses JSON output from 'syft <image> -o json' into the
// distro and the package records of the first OS package type found.
func parseSyftOutput(output []byte) (*types.ImageFacts, error) {
	var syftOutput struct {
		Distro struct {
			ID         string `json:"id"`
			Name       string `json:"name"`
			VersionID  string `json:"versionID"`
			Version    string `json:"version"`
			PrettyName string `json:"prettyName"`
		} `json:"distro"`
		Artifacts []struct {
			Name     string       `json:"name"`
			Version  string       `json:"version"`
			Type     string       `json:"type"`
			Metadata syftMetadata `json:"metadata"`
		} `json:"artifacts"`
	}

	if err := json.Unmarshal(output, &syftOutput); err != nil {
		return nil, fmt.Errorf("failed to unmarshal syft output: %w", err)
	}

	facts := &types.ImageFacts{
		OSRelease: types.OSRelease{
			Name:       firstNonEmpty(syftOutput.Distro.ID, syftOutput.Distro.Name),
			Version:    firstNonEmpty(syftOutput.Distro.VersionID, syftOutput.Distro.Version),
			PrettyName: syftOutput.Distro.PrettyName,
		},
		Packages: make([]*types.PackageRecord, 0),
	}

	for _, artifact := range syftOutput.Artifacts {
		if !osPackageTypes[artifact.Type] {
			continue
		}
		if facts.PackageManager == "" {
			facts.PackageManager = artifact.Type
		}
		if artifact.Type != facts.PackageManager {
			continue
		}
		facts.Packages = append(facts.Packages, artifactRecord(artifact.Name, artifact.Version, artifact.Type, artifact.Metadata))
	}

	return facts, nil
}

func artifactRecord(name, version, pkgType string, md syftMetadata) *types.PackageRecord {
	rec := &types.PackageRecord{Name: name, Version: version}

	if pkgType != "rpm" {
		if src := firstNonEmpty(md.Source, md.OriginPackage); src != "" && src != name {
			rec.Source = stripConstraint(src)
		}
	}

	for _, p := range md.Provides {
		if alias := stripConstraint(p); alias != "" {
			rec.Provides = append(rec.Provides, alias)
		}
	}

	var deps []string
	for _, group := range [][]string{md.PreDepends, md.Depends, md.PullDependencies, md.Requires} {
		for _, d := range group {
			if dep := dependencyName(d); dep != "" {
				deps = append(deps, dep)
			}
		}
	}
	rec.Deps = types.DepsOf(deps...)
	return rec
}

// dependencyName reduces a declared dependency to a bare name: Debian
// alternatives keep the first choice, and version constraints and apk
// conflict markers are dropped.
func dependencyName(decl string) string {
	decl = strings.TrimSpace(decl)
	if first, _, ok := strings.Cut(decl, "|"); ok {
		decl = strings.TrimSpace(first)
	}
	if strings.HasPrefix(decl, "!") {
		return ""
	}
	return stripConstraint(decl)
}

// stripConstraint cuts "name (>= 1)", "name>=1", "name=1" and "name = 1" down to "name".
func stripConstraint(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " (<>=~"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, ":any"); i >= 0 && i == len(s)-len(":any") {
		s = s[:i]
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
