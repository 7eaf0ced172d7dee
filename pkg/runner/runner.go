package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/northcutted/dock-deps/pkg/types"
)

// Default command timeouts, used when a runner has none configured.
const (
	TimeoutInspect = 30 * time.Second
	TimeoutScan    = 5 * time.Minute
)

// lookupTool resolves the path to an external tool binary. It checks the
// system PATH first and falls back to ~/.dock-deps/bin/.
var lookupTool = func(name string) (string, error) {
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH", name)
	}
	candidate := filepath.Join(home, ".dock-deps", "bin", name)
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate, nil
	}
	return "", fmt.Errorf("%s not found in PATH or %s", name, filepath.Dir(candidate))
}

// lookupRuntime picks docker, falling back to podman.
var lookupRuntime = func() (string, error) {
	if _, err := exec.LookPath("docker"); err == nil {
		return "docker", nil
	}
	if _, err := exec.LookPath("podman"); err == nil {
		return "podman", nil
	}
	return "", errors.New("no container runtime found (docker or podman)")
}

// ToolRunner defines the interface for external tool integration.
type ToolRunner interface {
	Name() string
	IsAvailable() bool
	Run(ctx context.Context, image string, verbose bool) (*types.ImageFacts, error)
}

// runCommand executes a command and handles verbose logging and error reporting.
func runCommand(cmd *exec.Cmd, verbose bool) ([]byte, error) {
	if verbose {
		slog.Debug("running command", "cmd", cmd.String())
	}

	output, err := cmd.Output()
	if err != nil {
		var stderr []byte
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr = exitErr.Stderr
		}
		return nil, fmt.Errorf("command failed: %w\nStderr: %s", err, string(stderr))
	}

	if verbose {
		slog.Debug("command output", "bytes", len(output))
	}

	return output, nil
}

func withTimeout(ctx context.Context, configured, fallback time.Duration) (context.Context, context.CancelFunc) {
	if configured <= 0 {
		configured = fallback
	}
	return context.WithTimeout(ctx, configured)
}

// FindTool reports where an external tool binary would be run from.
func FindTool(name string) (string, error) {
	return lookupTool(name)
}

// FindRuntime reports which container runtime binary is available.
func FindRuntime() (string, error) {
	return lookupRuntime()
}
