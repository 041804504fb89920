// Package traversal provides the single bounded breadth-first primitive
// shared by influence-zone computation, k-hop suspicious-member detection
// and shared-contact detection. Keeping one implementation avoids the
// subtly-inconsistent hop accounting that creeps in when every analysis
// pass rolls its own walk.
package traversal

import (
	"sort"

	"github.com/xkilldash9x/fraudlens-cli/internal/graph"
)

// Predicate filters the reached node set. A nil predicate keeps everything.
type Predicate func(id string) bool

// ReachableWithin performs a multi-source BFS over g, bounded by maxHops.
//
// A single visited set is shared across all sources, so each node is
// expanded at most once and hop counts are never double-counted. A node at
// hop-distance d is expanded only while d < maxHops. The sources themselves
// are excluded from the result. maxHops == 0 or an empty source set returns
// an empty slice.
//
// The frontier is processed in ascending id order and the result is sorted,
// so repeated calls on unchanged graph state return identical slices.
func ReachableWithin(g *graph.Store, sources []string, maxHops int, pred Predicate) []string {
	if maxHops <= 0 || len(sources) == 0 {
		return nil
	}

	visited := make(map[string]struct{}, len(sources))
	sourceSet := make(map[string]struct{}, len(sources))
	frontier := make([]string, 0, len(sources))
	for _, id := range sources {
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}
		sourceSet[id] = struct{}{}
		frontier = append(frontier, id)
	}
	sort.Strings(frontier)

	var reached []string
	for depth := 0; depth < maxHops && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			for _, n := range g.Neighbors(id) {
				if _, seen := visited[n]; seen {
					continue
				}
				visited[n] = struct{}{}
				next = append(next, n)
				if _, isSource := sourceSet[n]; isSource {
					continue
				}
				if pred == nil || pred(n) {
					reached = append(reached, n)
				}
			}
		}
		sort.Strings(next)
		frontier = next
	}

	sort.Strings(reached)
	return reached
}

// KindIs returns a predicate matching nodes whose kind equals want. Unknown
// ids never match.
func KindIs(g *graph.Store, want string) Predicate {
	return func(id string) bool {
		kind, err := g.Kind(id)
		if err != nil {
			return false
		}
		return string(kind) == want
	}
}
