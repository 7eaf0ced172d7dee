package deptree

import (
	"github.com/northcutted/dock-deps/pkg/depindex"
	"github.com/northcutted/dock-deps/pkg/spinner"
)

// DefaultFrequencyThreshold is the visit count above which a package is
// grouped under meta-common-packages.
const DefaultFrequencyThreshold = 100

// Frequencies maps real package names to the number of ancestor-guarded
// paths that reach them from the top-level packages.
type Frequencies struct {
	counts map[string]int
	order  []string
}

// Count returns the visit count recorded for a real package name.
func (f *Frequencies) Count(name string) int {
	return f.counts[name]
}

// Names returns every counted name in first-visit order.
func (f *Frequencies) Names() []string {
	return f.order
}

// TooFrequent returns, in first-visit order, the names whose count exceeds threshold.
func (f *Frequencies) TooFrequent(threshold int) []string {
	var out []string
	for _, name := range f.order {
		if f.counts[name] > threshold {
			out = append(out, name)
		}
	}
	return out
}

func (f *Frequencies) inc(name string) int {
	if _, ok := f.counts[name]; !ok {
		f.order = append(f.order, name)
	}
	f.counts[name]++
	return f.counts[name]
}

// CountOptions configures CountFrequencies.
type CountOptions struct {
	// SaturateAbove stops expanding a package once every name reachable from
	// it, itself included, has a count above this value. Later expansions
	// could only raise counts that are already above it, so TooFrequent with
	// the same value matches exact counting, cycles included. Counts of
	// saturated names are lower bounds. Zero counts every path exactly,
	// which is exponential on diamond-heavy inputs.
	SaturateAbove int
	Checkpoint    spinner.Checkpointer
}

type countFrame struct {
	name string
	deps []string
	next int
}

// CountFrequencies walks every record of idx as a top-level package,
// incrementing a counter for each visited real name that is not already an
// ancestor on the current path.
func CountFrequencies(idx *depindex.Index, opts CountOptions) *Frequencies {
	cp := spinner.OrNoop(opts.Checkpoint)
	freq := &Frequencies{counts: make(map[string]int)}
	onPath := make(map[string]bool)
	var stack []countFrame
	var reach *reachability
	if opts.SaturateAbove > 0 {
		reach = newReachability(idx)
	}

	enter := func(depName string) {
		rec, ok := idx.Resolve(depName)
		if !ok {
			return
		}
		// depName may be a provided alias; count the real name.
		name := rec.Name
		if onPath[name] {
			return
		}
		cp.Tick()
		n := freq.inc(name)
		if reach != nil {
			if n == opts.SaturateAbove+1 {
				reach.crossed(name)
			}
			if reach.saturated(name) {
				return
			}
		}
		onPath[name] = true
		stack = append(stack, countFrame{name: name, deps: rec.Deps.Names()})
	}

	for _, rec := range idx.Records() {
		if rec == nil {
			continue
		}
		enter(rec.Name)
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next >= len(top.deps) {
				delete(onPath, top.name)
				stack = stack[:len(stack)-1]
				continue
			}
			dep := top.deps[top.next]
			top.next++
			enter(dep)
		}
	}
	return freq
}
