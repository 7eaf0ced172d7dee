package deptree

import (
	"math/bits"

	"github.com/northcutted/dock-deps/pkg/depindex"
)

// reachability tracks, for every real package name, how many names reachable
// from it (itself included) have not yet been counted above a threshold.
// Names in one strongly connected component share a reach set, so the
// bookkeeping is per component.
type reachability struct {
	node      map[string]int
	comp      []int
	reach     [][]uint64
	remaining []int
}

func newReachability(idx *depindex.Index) *reachability {
	r := &reachability{node: make(map[string]int)}
	var names []string
	for _, rec := range idx.Records() {
		if rec == nil {
			continue
		}
		if _, ok := r.node[rec.Name]; !ok {
			r.node[rec.Name] = len(names)
			names = append(names, rec.Name)
		}
	}

	// A name may belong to several records, and an alias may resolve to a
	// record other than the one ByName returns, so edges are the union.
	adj := make([][]int, len(names))
	for _, rec := range idx.Records() {
		if rec == nil {
			continue
		}
		v := r.node[rec.Name]
		for _, dep := range rec.Deps.Names() {
			if target, ok := idx.Resolve(dep); ok {
				adj[v] = append(adj[v], r.node[target.Name])
			}
		}
	}

	var members [][]int
	r.comp, members = components(adj)

	words := (len(names) + 63) / 64
	r.reach = make([][]uint64, len(members))
	r.remaining = make([]int, len(members))
	// components numbers sinks first, so every successor is already done.
	for c, vs := range members {
		set := make([]uint64, words)
		for _, v := range vs {
			set[v/64] |= 1 << (v % 64)
			for _, w := range adj[v] {
				if wc := r.comp[w]; wc != c {
					for i, word := range r.reach[wc] {
						set[i] |= word
					}
				}
			}
		}
		r.reach[c] = set
		for _, word := range set {
			r.remaining[c] += bits.OnesCount64(word)
		}
	}
	return r
}

// crossed records that name has just been counted above the threshold.
func (r *reachability) crossed(name string) {
	v, ok := r.node[name]
	if !ok {
		return
	}
	word, bit := v/64, uint64(1)<<(v%64)
	for c, set := range r.reach {
		if set[word]&bit != 0 {
			r.remaining[c]--
		}
	}
}

// saturated reports whether every name reachable from name is above the
// threshold.
func (r *reachability) saturated(name string) bool {
	v, ok := r.node[name]
	return ok && r.remaining[r.comp[v]] == 0
}

type tarjanFrame struct {
	v, next int
}

// components assigns every vertex of adj to a strongly connected component
// using an iterative Tarjan walk. Components are numbered in completion
// order, so an edge between components always points to a lower number.
func components(adj [][]int) ([]int, [][]int) {
	n := len(adj)
	index := make([]int, n)
	low := make([]int, n)
	comp := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var (
		stack   []int
		members [][]int
		counter int
	)

	for s := range n {
		if index[s] != -1 {
			continue
		}
		index[s], low[s] = counter, counter
		counter++
		stack = append(stack, s)
		onStack[s] = true
		call := []tarjanFrame{{v: s}}

		for len(call) > 0 {
			f := &call[len(call)-1]
			v := f.v
			if f.next < len(adj[v]) {
				w := adj[v][f.next]
				f.next++
				switch {
				case index[w] == -1:
					index[w], low[w] = counter, counter
					counter++
					stack = append(stack, w)
					onStack[w] = true
					call = append(call, tarjanFrame{v: w})
				case onStack[w]:
					low[v] = min(low[v], index[w])
				}
				continue
			}

			if low[v] == index[v] {
				c := len(members)
				var group []int
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					comp[w] = c
					group = append(group, w)
					if w == v {
						break
					}
				}
				members = append(members, group)
			}
			call = call[:len(call)-1]
			if len(call) > 0 {
				u := call[len(call)-1].v
				low[u] = min(low[u], low[v])
			}
		}
	}
	return comp, members
}
