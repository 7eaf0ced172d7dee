package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/northcutted/dock-deps/pkg/types"
)

// RuntimeRunner runs 'docker inspect' or 'podman inspect' to learn the
// image id, platform and layer digests.
type RuntimeRunner struct {
	Timeout time.Duration
	binary  string
}

// Name returns the display name for this runner.
func (r *RuntimeRunner) Name() string {
	if r.binary != "" {
		return r.binary
	}
	return "runtime"
}

// IsAvailable checks whether a container runtime (docker or podman) is installed.
func (r *RuntimeRunner) IsAvailable() bool {
	binary, err := lookupRuntime()
	if err != nil {
		return false
	}
	r.binary = binary
	return true
}

// Run executes the runtime's inspect command and parses the result.
func (r *RuntimeRunner) Run(ctx context.Context, image string, verbose bool) (*types.ImageFacts, error) {
	if r.binary == "" {
		if !r.IsAvailable() {
			return nil, fmt.Errorf("no container runtime found (docker or podman)")
		}
	}

	runCtx, cancel := withTimeout(ctx, r.Timeout, TimeoutInspect)
	defer cancel()
	cmd := exec.CommandContext(runCtx, r.binary, "inspect", image)
	output, err := runCommand(cmd, verbose)
	if err != nil {
		return nil, err
	}

	return parseRuntimeInspect(output, image, r.binary)
}

// parseRuntimeInspect parses JSON output from 'docker inspect' or 'podman inspect'.
func parseRuntimeInspect(output []byte, image string, binary string) (*types.ImageFacts, error) {
	var inspect []struct {
		ID           string `json:"Id"`
		Architecture string `json:"Architecture"`
		Os           string `json:"Os"`
		RootFS       struct {
			Layers []string `json:"Layers"`
		} `json:"RootFS"`
	}

	if err := json.Unmarshal(output, &inspect); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s inspect output: %w", binary, err)
	}

	if len(inspect) == 0 {
		return nil, fmt.Errorf("no inspect data returned for image %s", image)
	}

	data := inspect[0]
	return &types.ImageFacts{
		ImageTag:     image,
		ImageID:      data.ID,
		Architecture: data.Architecture,
		OS:           data.Os,
		Layers:       data.RootFS.Layers,
	}, nil
}
