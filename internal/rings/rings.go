// Package rings surfaces likely coordinated fraud rings by enumerating
// maximal cliques inside the fraudster-induced subgraph.
package rings

import (
	"sort"

	"github.com/xkilldash9x/fraudlens-cli/internal/graph"
)

// Options bound the enumeration. MinSize filters the returned cliques;
// MaxNodes is a fail-fast guard against the worst-case exponential blowup
// of clique enumeration (0 disables the guard).
type Options struct {
	MinSize  int `mapstructure:"min_size" yaml:"min_size"`
	MaxNodes int `mapstructure:"max_nodes" yaml:"max_nodes"`
}

// DefaultOptions keeps rings of at least three fraudsters and refuses to
// enumerate induced subgraphs above 5000 nodes.
func DefaultOptions() Options {
	return Options{MinSize: 3, MaxNodes: 5000}
}

// FindRings restricts g to the induced subgraph over fraudsterIDs, then
// enumerates all maximal cliques there and keeps those with at least
// opts.MinSize members. Every returned ring is pairwise fully connected
// within the restricted subgraph and maximal (not a strict subset of
// another returned ring). Members and rings are sorted for determinism.
//
// The contract is correctness, not a time bound: above opts.MaxNodes the
// call fails fast with GraphTooLargeError instead of hanging.
func FindRings(g *graph.Store, fraudsterIDs []string, opts Options) ([][]string, error) {
	if opts.MinSize < 2 {
		opts.MinSize = 2
	}

	// Induced adjacency restricted to the fraudster set.
	inSet := make(map[string]struct{}, len(fraudsterIDs))
	for _, id := range fraudsterIDs {
		if g.HasNode(id) {
			inSet[id] = struct{}{}
		}
	}
	if opts.MaxNodes > 0 && len(inSet) > opts.MaxNodes {
		return nil, &graph.GraphTooLargeError{Nodes: len(inSet), Limit: opts.MaxNodes}
	}

	adj := make(map[string]map[string]struct{}, len(inSet))
	for id := range inSet {
		adj[id] = make(map[string]struct{})
		for _, n := range g.Neighbors(id) {
			if _, ok := inSet[n]; ok && n != id {
				adj[id][n] = struct{}{}
			}
		}
	}

	var cliques [][]string
	var r []string
	p := make(map[string]struct{}, len(inSet))
	x := make(map[string]struct{})
	for id := range inSet {
		p[id] = struct{}{}
	}
	bronKerbosch(adj, r, p, x, &cliques)

	var rings [][]string
	for _, c := range cliques {
		if len(c) < opts.MinSize {
			continue
		}
		sort.Strings(c)
		rings = append(rings, c)
	}
	sort.Slice(rings, func(i, j int) bool {
		if len(rings[i]) != len(rings[j]) {
			return len(rings[i]) > len(rings[j])
		}
		return lessLex(rings[i], rings[j])
	})
	return rings, nil
}

// bronKerbosch enumerates maximal cliques with pivoting. r is the growing
// clique, p the candidate set, x the exclusion set.
func bronKerbosch(adj map[string]map[string]struct{}, r []string, p, x map[string]struct{}, out *[][]string) {
	if len(p) == 0 && len(x) == 0 {
		clique := make([]string, len(r))
		copy(clique, r)
		*out = append(*out, clique)
		return
	}

	// Pick the pivot with the most candidate neighbors to prune branches.
	pivot := ""
	best := -1
	for _, set := range []map[string]struct{}{p, x} {
		for u := range set {
			count := 0
			for v := range p {
				if _, ok := adj[u][v]; ok {
					count++
				}
			}
			if count > best {
				best = count
				pivot = u
			}
		}
	}

	// Candidates not adjacent to the pivot, in sorted order so the
	// recursion (and therefore the output) is deterministic.
	var candidates []string
	for v := range p {
		if _, ok := adj[pivot][v]; !ok {
			candidates = append(candidates, v)
		}
	}
	sort.Strings(candidates)

	for _, v := range candidates {
		nextP := intersect(p, adj[v])
		nextX := intersect(x, adj[v])
		bronKerbosch(adj, append(r, v), nextP, nextX, out)
		delete(p, v)
		x[v] = struct{}{}
	}
}

func intersect(set map[string]struct{}, keep map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for v := range set {
		if _, ok := keep[v]; ok {
			out[v] = struct{}{}
		}
	}
	return out
}

func lessLex(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
