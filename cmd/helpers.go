package cmd

import (
	"fmt"
	"strings"

	"github.com/northcutted/dock-deps/pkg/runner"
)

// checkToolStatus returns a string indicating the status of optional tools.
func checkToolStatus() string {
	var status strings.Builder
	status.WriteString("\nPrerequisites (only needed with --syft):\n")

	if binary, err := runner.FindRuntime(); err == nil {
		fmt.Fprintf(&status, "  [OK] %s\n", binary)
	} else {
		status.WriteString("  [MISSING] docker or podman (image id and layers are skipped)\n")
	}

	if path, err := runner.FindTool("syft"); err == nil {
		fmt.Fprintf(&status, "  [OK] syft (%s)\n", path)
	} else {
		status.WriteString("  [MISSING] syft (install it or use --packages)\n")
	}
	return status.String()
}
