// Package metrics exposes scan statistics as Prometheus collectors. The CLI
// is short lived, so collectors live in a private registry that is written
// out as a node_exporter textfile instead of being scraped.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder owns one registry and the collectors registered on it.
type Recorder struct {
	registry *prometheus.Registry

	scans         *prometheus.CounterVec
	graphNodes    prometheus.Histogram
	graphPaths    prometheus.Histogram
	treeSize      prometheus.Histogram
	pruneOutcomes *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dock_deps_scans_total",
			Help: "Scans run, by package manager and result.",
		}, []string{"package_manager", "result"}),
		graphNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dock_deps_graph_nodes",
			Help:    "Nodes in the returned dependency graph.",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		}),
		graphPaths: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dock_deps_graph_paths",
			Help:    "Path weight of the built graph before mitigation.",
			Buckets: prometheus.ExponentialBuckets(100, 5, 8),
		}),
		treeSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dock_deps_tree_nodes",
			Help:    "Nodes in the legacy dependency tree.",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		}),
		pruneOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dock_deps_prune_total",
			Help: "Graph size mitigation outcomes (unchanged, pruned, too_large).",
		}, []string{"outcome"}),
		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dock_deps_phase_duration_seconds",
			Help:    "Duration of scan phases.",
			Buckets: prometheus.DefBuckets,
		}, []string{"phase"}),
	}
	r.registry.MustRegister(r.scans, r.graphNodes, r.graphPaths, r.treeSize, r.pruneOutcomes, r.phaseDuration)
	return r
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveScan records a finished scan.
func (r *Recorder) ObserveScan(packageManager string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.scans.WithLabelValues(packageManager, result).Inc()
}

// ObserveGraph records graph size and path weight.
func (r *Recorder) ObserveGraph(nodes, paths int) {
	r.graphNodes.Observe(float64(nodes))
	r.graphPaths.Observe(float64(paths))
}

// ObserveTree records the legacy tree size.
func (r *Recorder) ObserveTree(nodes int) {
	r.treeSize.Observe(float64(nodes))
}

// ObservePrune records a mitigation outcome.
func (r *Recorder) ObservePrune(outcome string) {
	r.pruneOutcomes.WithLabelValues(outcome).Inc()
}

// ObservePhase records how long a phase took, in seconds.
func (r *Recorder) ObservePhase(phase string, seconds float64) {
	r.phaseDuration.WithLabelValues(phase).Observe(seconds)
}

// WriteTextfile writes the registry in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
