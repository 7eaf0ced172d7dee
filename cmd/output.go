package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Output formats accepted by --format.
const (
	formatJSON     = "json"
	formatTree     = "tree"
	formatMarkdown = "markdown"
)

const defaultOutput = "dock-deps.json"

// outputExtension maps a format to the file extension used for its output.
func outputExtension(format string) string {
	switch format {
	case formatMarkdown:
		return ".md"
	default:
		return ".json"
	}
}

// resolveOutputPath determines the output file path for a given format.
// If the user explicitly set a non-default output file, that is used as-is.
// Otherwise the name is derived from the format (dock-deps.md, dock-deps-tree.json).
func resolveOutputPath(currentOutput string, format string) string {
	if currentOutput != defaultOutput {
		return currentOutput
	}
	base := strings.TrimSuffix(currentOutput, filepath.Ext(currentOutput))
	if format == formatTree {
		base += "-tree"
	}
	return base + outputExtension(format)
}

func validateFormat(format string) error {
	switch format {
	case formatJSON, formatTree, formatMarkdown:
		return nil
	}
	return fmt.Errorf("unknown format %q (want json, tree or markdown)", format)
}
