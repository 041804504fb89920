package graph

import (
	"sort"

	"github.com/xkilldash9x/fraudlens-cli/api/schemas"
)

// Extract builds a new Store containing exactly the seed ids that exist in
// g (plus each seed's immediate neighbors when includeNeighbors is set) and
// every edge of g whose both endpoints fall inside that node set.
//
// The result depends only on the seed set, the flag, and graph state; the
// source graph is never mutated.
func Extract(g *Store, seeds []string, includeNeighbors bool) *Store {
	keep := make(map[string]struct{}, len(seeds))
	for _, id := range seeds {
		if !g.HasNode(id) {
			continue
		}
		keep[id] = struct{}{}
		if includeNeighbors {
			for _, n := range g.Neighbors(id) {
				keep[n] = struct{}{}
			}
		}
	}

	out := NewStore(g.log)
	ids := make([]string, 0, len(keep))
	for id := range keep {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		node, err := g.Node(id)
		if err != nil {
			continue
		}
		out.AddNode(node.ID, node.Kind, node.Attrs)
	}
	for _, e := range g.Edges() {
		if _, ok := keep[e.A]; !ok {
			continue
		}
		if _, ok := keep[e.B]; !ok {
			continue
		}
		out.AddEdge(e.A, e.B, e.Relation, e.Attrs)
	}
	return out
}

// Snapshot converts a Store into the serializable Subgraph form used by the
// exporters, with nodes and edges in their canonical sorted order.
func Snapshot(g *Store) *schemas.Subgraph {
	sub := &schemas.Subgraph{
		Nodes: make([]schemas.Node, 0, g.NodeCount()),
		Edges: g.Edges(),
	}
	for _, id := range g.NodeIDs() {
		node, err := g.Node(id)
		if err != nil {
			continue
		}
		sub.Nodes = append(sub.Nodes, node)
	}
	return sub
}
