// Package scan turns a set of package records into the dependency graph
// and legacy tree for one image.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/northcutted/dock-deps/pkg/config"
	"github.com/northcutted/dock-deps/pkg/depgraph"
	"github.com/northcutted/dock-deps/pkg/depindex"
	"github.com/northcutted/dock-deps/pkg/deptree"
	"github.com/northcutted/dock-deps/pkg/imageref"
	"github.com/northcutted/dock-deps/pkg/metrics"
	"github.com/northcutted/dock-deps/pkg/records"
	"github.com/northcutted/dock-deps/pkg/spinner"
	"github.com/northcutted/dock-deps/pkg/types"
)

// Request describes one scan.
type Request struct {
	// Image is the image reference, e.g. "debian:12" or "alpine@sha256:...".
	Image          string
	PackageManager string
	OS             types.OSRelease
	Packages       []*types.PackageRecord

	// ImageID and Layers are passed through to the result when known.
	ImageID string
	Layers  []string

	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Recorder
	// Yield overrides the spinner's yield function. Nil means runtime.Gosched.
	Yield spinner.YieldFunc
}

// Result is what a scan produced.
type Result struct {
	ScanID         string
	Image          types.ImageIdentity
	PackageManager string
	OS             types.OSRelease
	ImageID        string
	Layers         []string

	// Graph is the graph to report: pruned when pruning was needed and
	// helped, the original graph otherwise.
	Graph *depgraph.Graph
	// Tree is nil when legacy tree construction is disabled.
	Tree *deptree.Node

	Pruned bool
	// TooLarge is set when the graph stayed above the paths threshold
	// after pruning and the original graph was kept.
	TooLarge     bool
	PathsBefore  int
	PathsAfter   int
	PackageCount int
}

// Run builds the graph and the legacy tree from the request's records,
// then keeps the graph below the configured paths threshold.
func Run(ctx context.Context, req Request) (*Result, error) {
	res, err := run(ctx, req)
	if req.Metrics != nil {
		req.Metrics.ObserveScan(req.PackageManager, err)
	}
	return res, err
}

func run(ctx context.Context, req Request) (*Result, error) {
	if req.PackageManager == "" {
		return nil, errors.New("package manager is required")
	}
	cfg := req.Config
	if cfg == nil {
		cfg = config.Default()
	}

	scanID := uuid.NewString()
	logger := req.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("scan_id", scanID, "image", req.Image)

	// The builders run concurrently with the caller's yield hook, so they
	// work on a private copy of the records.
	packages := records.Clone(req.Packages)
	image := imageref.Parse(req.Image)
	res := &Result{
		ScanID:         scanID,
		Image:          image,
		PackageManager: req.PackageManager,
		OS:             req.OS,
		ImageID:        req.ImageID,
		Layers:         req.Layers,
		PackageCount:   len(packages),
	}

	start := time.Now()
	idx := depindex.New(packages)
	logger.Debug("indexed package records", "packages", idx.Len())

	var graph *depgraph.Graph
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		begin := time.Now()
		graph = depgraph.Build(idx, depgraph.Options{
			Image:          image,
			PackageManager: req.PackageManager,
			OS:             req.OS,
			Checkpoint:     newSpinner(cfg, req.Yield),
			Logger:         logger,
		})
		observePhase(req.Metrics, "graph", begin)
		return gctx.Err()
	})
	if cfg.Tree.Enabled {
		g.Go(func() error {
			begin := time.Now()
			res.Tree = deptree.Build(idx, deptree.Options{
				Image:              image,
				PackageManager:     req.PackageManager,
				OS:                 req.OS,
				FrequencyThreshold: cfg.Tree.FrequencyThreshold,
				Checkpoint:         newSpinner(cfg, req.Yield),
				Logger:             logger,
			})
			observePhase(req.Metrics, "tree", begin)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", req.Image, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", req.Image, err)
	}

	begin := time.Now()
	m, err := depgraph.Mitigate(graph, depgraph.MitigateOptions{
		Threshold:  cfg.Prune.PathsThreshold,
		Checkpoint: newSpinner(cfg, req.Yield),
		Logger:     logger,
	})
	observePhase(req.Metrics, "prune", begin)
	res.PathsBefore = m.WeightBefore
	res.PathsAfter = m.WeightAfter

	switch {
	case errors.Is(err, depgraph.ErrTooManyPaths):
		if cfg.Prune.Strict {
			observePrune(req.Metrics, "too_large")
			return nil, fmt.Errorf("scan %s: %w (%d paths, threshold %d)", req.Image, err, m.WeightAfter, cfg.Prune.PathsThreshold)
		}
		logger.Warn("dependency graph still too large after pruning, using original graph",
			"paths", m.WeightBefore, "pruned_paths", m.WeightAfter, "threshold", cfg.Prune.PathsThreshold)
		observePrune(req.Metrics, "too_large")
		res.Graph = graph
		res.TooLarge = true
	case err != nil:
		return nil, fmt.Errorf("scan %s: %w", req.Image, err)
	case m.Pruned:
		logger.Info("pruned dependency graph", "paths", m.WeightBefore, "pruned_paths", m.WeightAfter)
		observePrune(req.Metrics, "pruned")
		res.Graph = m.Graph
		res.Pruned = true
	default:
		observePrune(req.Metrics, "unchanged")
		res.Graph = m.Graph
	}

	if req.Metrics != nil {
		req.Metrics.ObserveGraph(res.Graph.NodeCount(), m.WeightBefore)
		if res.Tree != nil {
			req.Metrics.ObserveTree(res.Tree.Size())
		}
	}

	logger.Info("scan complete",
		"packages", res.PackageCount,
		"nodes", res.Graph.NodeCount(),
		"edges", res.Graph.EdgeCount(),
		"duration", time.Since(start))
	return res, nil
}

func newSpinner(cfg *config.Config, yield spinner.YieldFunc) *spinner.Spinner {
	opts := []spinner.Option{
		spinner.WithEvery(cfg.Spinner.Every),
		spinner.WithBudget(cfg.Spinner.Budget),
	}
	if yield != nil {
		opts = append(opts, spinner.WithYield(yield))
	}
	return spinner.New(opts...)
}

func observePhase(rec *metrics.Recorder, phase string, begin time.Time) {
	if rec != nil {
		rec.ObservePhase(phase, time.Since(begin).Seconds())
	}
}

func observePrune(rec *metrics.Recorder, outcome string) {
	if rec != nil {
		rec.ObservePrune(outcome)
	}
}
