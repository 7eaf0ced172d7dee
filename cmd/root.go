package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool

	// stdout is where rendered output goes; tests swap it.
	stdout io.Writer = os.Stdout
	// stderr receives log output.
	stderr io.Writer = os.Stderr
)

var rootCmd = &cobra.Command{
	Use:   "dock-deps",
	Short: "Build dependency graphs from container image package records",
	Long: `Build dependency graphs from the OS packages installed in a container image.

The installed package records come either from a JSON/YAML package file
(--packages) or from a Syft scan of the image (--syft). From them dock-deps
builds a rooted dependency graph keyed by package identity and the legacy
nested dependency tree, pruning the graph when it has too many paths.`,
	Example: `  # Scan an image with Syft and print the graph
  dock-deps scan --image debian:12 --syft --dry-run

  # Build from a package file and write a Markdown summary
  dock-deps scan --image alpine:3.19 --packages packages.yaml --format markdown

  # Emit only the legacy tree
  dock-deps scan --packages packages.json --format tree -o tree.json`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger(stderr, verbose)
	},
}

// Execute runs the root cobra command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogger installs a charmbracelet/log handler as the slog default.
func setupLogger(w io.Writer, debug bool) {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: debug,
		Prefix:          "dock-deps",
	})
	slog.SetDefault(slog.New(handler))
}

func init() {
	// Dynamically append tool status to the help description
	rootCmd.Long += "\n" + checkToolStatus()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: dock-deps.yaml when present)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")

	rootCmd.AddCommand(scanCmd, versionCmd)

	// Add version flag as shortcut for "version" command
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("dock-deps {{.Version}}\n")
}
