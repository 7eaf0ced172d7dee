package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/northcutted/dock-deps/pkg/analysis"
	"github.com/northcutted/dock-deps/pkg/config"
	"github.com/northcutted/dock-deps/pkg/metrics"
	"github.com/northcutted/dock-deps/pkg/records"
	"github.com/northcutted/dock-deps/pkg/renderer"
	"github.com/northcutted/dock-deps/pkg/runner"
	"github.com/northcutted/dock-deps/pkg/scan"
	"github.com/northcutted/dock-deps/pkg/types"
)

var (
	imageTag       string
	packagesFile   string
	useSyft        bool
	packageManager string
	targetOS       string
	outputFile     string
	outputFormat   string
	dryRun         bool
	metricsFile    string
)

// newRunners returns the collaborators used with --syft; tests replace it.
var newRunners = func(cfg *config.Config) []runner.ToolRunner {
	return []runner.ToolRunner{
		&runner.SyftRunner{Timeout: cfg.Syft.Timeout},
		&runner.RuntimeRunner{Timeout: cfg.Inspect.Timeout},
	}
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Build the dependency graph and legacy tree for an image",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd.Context())
	},
}

func init() {
	scanCmd.Flags().StringVar(&imageTag, "image", "", "Image reference the packages belong to (e.g. debian:12)")
	scanCmd.Flags().StringVar(&packagesFile, "packages", "", "JSON or YAML file with the installed package records")
	scanCmd.Flags().BoolVar(&useSyft, "syft", false, "Collect package records by running syft against --image")
	scanCmd.Flags().StringVar(&packageManager, "package-manager", "", "Package manager id (apk, deb, rpm); overrides the package file")
	scanCmd.Flags().StringVar(&targetOS, "os", "", "Target OS as name:version; overrides the package file")
	scanCmd.Flags().StringVarP(&outputFile, "output", "o", defaultOutput, "Path to output file")
	scanCmd.Flags().StringVar(&outputFormat, "format", formatJSON, "Output format: json, tree or markdown")
	scanCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print to stdout instead of writing to file")
	scanCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
}

func runScan(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := validateFormat(outputFormat); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	req, err := collectRecords(ctx, cfg)
	if err != nil {
		return err
	}

	rec := metrics.New()
	req.Config = cfg
	req.Metrics = rec
	res, err := scan.Run(ctx, req)
	if path := resolveMetricsFile(cfg); path != "" {
		if werr := rec.WriteTextfile(path); werr != nil {
			slog.Warn("could not write metrics", "error", werr)
		}
	}
	if err != nil {
		return err
	}

	rendered, err := render(res)
	if err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}

	if dryRun {
		fmt.Fprint(stdout, rendered)
		return nil
	}

	outPath := resolveOutputPath(outputFile, outputFormat)
	if err := os.WriteFile(outPath, []byte(rendered), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	slog.Info("wrote output file", "path", outPath, "format", outputFormat)
	return nil
}

// loadConfig reads --config, or dock-deps.yaml from the working directory
// when it exists.
func loadConfig() (*config.Config, error) {
	cfgPath := configFile
	if cfgPath == "" {
		if _, err := os.Stat(config.DefaultFile); err == nil {
			cfgPath = config.DefaultFile
		}
	}
	return config.Load(cfgPath)
}

func resolveMetricsFile(cfg *config.Config) string {
	if metricsFile != "" {
		return metricsFile
	}
	return cfg.Metrics.File
}

// collectRecords builds a scan request from --packages or from the syft
// runners. Flags override what the package file declares.
func collectRecords(ctx context.Context, cfg *config.Config) (scan.Request, error) {
	req := scan.Request{Image: imageTag}

	switch {
	case packagesFile != "":
		doc, err := records.Load(packagesFile)
		if err != nil {
			return req, err
		}
		if req.Image == "" {
			req.Image = doc.Image
		}
		req.PackageManager = doc.PackageManager
		req.OS = doc.OS
		req.Packages = doc.Packages
	case useSyft:
		if imageTag == "" {
			return req, errors.New("--image is required with --syft")
		}
		slog.Info("analyzing image", "image", imageTag)
		facts, err := analysis.AnalyzeImage(ctx, imageTag, newRunners(cfg), verbose)
		if err != nil {
			return req, fmt.Errorf("analysis failed: %w", err)
		}
		req.PackageManager = facts.PackageManager
		req.OS = facts.OSRelease
		req.Packages = facts.Packages
		req.ImageID = facts.ImageID
		req.Layers = facts.Layers
	default:
		return req, errors.New("either --packages or --syft is required")
	}

	if packageManager != "" {
		req.PackageManager = packageManager
	}
	if targetOS != "" {
		osRelease, err := parseOSFlag(targetOS)
		if err != nil {
			return req, err
		}
		req.OS = osRelease
	}
	if req.Image == "" {
		return req, errors.New("image reference is required (--image or the package file's image field)")
	}
	if req.PackageManager == "" {
		return req, errors.New("package manager is unknown; pass --package-manager")
	}
	return req, nil
}

// parseOSFlag parses "name:version".
func parseOSFlag(value string) (types.OSRelease, error) {
	name, version, ok := strings.Cut(value, ":")
	if !ok || name == "" || version == "" {
		return types.OSRelease{}, fmt.Errorf("invalid --os %q (want name:version)", value)
	}
	return types.OSRelease{Name: name, Version: version}, nil
}

func render(res *scan.Result) (string, error) {
	var (
		data []byte
		err  error
	)
	switch outputFormat {
	case formatMarkdown:
		return renderer.Markdown(res)
	case formatTree:
		data, err = renderer.TreeJSON(res.Tree)
	default:
		data, err = renderer.ScanJSON(res)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
