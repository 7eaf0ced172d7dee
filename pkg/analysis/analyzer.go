package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/northcutted/dock-deps/pkg/runner"
	"github.com/northcutted/dock-deps/pkg/types"
)

// AnalyzeImage runs all available runners concurrently and merges their
// facts. A failing runner is logged and skipped; the scan only fails when
// no runner produced any package records.
func AnalyzeImage(ctx context.Context, image string, runners []runner.ToolRunner, verbose bool) (*types.ImageFacts, error) {
	if image == "" {
		return nil, fmt.Errorf("image tag is required")
	}

	facts := &types.ImageFacts{
		ImageTag: image,
		Packages: make([]*types.PackageRecord, 0),
	}

	var mu sync.Mutex
	var failures []error
	g, gctx := errgroup.WithContext(ctx)

	for _, r := range runners {
		if !r.IsAvailable() {
			slog.Warn("tool not installed or not in PATH, skipping", "tool", r.Name())
			continue
		}

		g.Go(func() error {
			got, err := r.Run(gctx, image, verbose)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("analysis step failed", "tool", r.Name(), "error", err)
				failures = append(failures, fmt.Errorf("%s failed: %w", r.Name(), err))
				return nil
			}
			facts.Merge(got)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(facts.Packages) == 0 {
		if len(failures) > 0 {
			return nil, fmt.Errorf("no package records collected for %s: %w", image, failures[0])
		}
		return nil, fmt.Errorf("no package records collected for %s", image)
	}
	facts.ImageTag = image

	return facts, nil
}
