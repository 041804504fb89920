package scoring

import (
	"math"

	"github.com/xkilldash9x/fraudlens-cli/internal/graph"
)

// PageRankConfig tunes the link-propagation pass. Damping, tolerance and
// the iteration cap are fixed per run, which makes the output deterministic.
type PageRankConfig struct {
	Damping   float64 `mapstructure:"damping" yaml:"damping"`
	Tolerance float64 `mapstructure:"tolerance" yaml:"tolerance"`
	MaxIter   int     `mapstructure:"max_iter" yaml:"max_iter"`
}

// DefaultPageRankConfig mirrors the conventional 0.85 damping factor.
func DefaultPageRankConfig() PageRankConfig {
	return PageRankConfig{Damping: 0.85, Tolerance: 1e-6, MaxIter: 100}
}

// PageRank runs power iteration over the undirected graph, treating each
// edge as a pair of directed links. Isolated nodes redistribute their mass
// uniformly (the dangling-node correction), so the scores always sum to 1.
//
// Iteration walks node ids in the store's sorted order; combined with the
// fixed damping factor and tolerance this makes the result reproducible for
// a fixed graph.
func PageRank(g *graph.Store, cfg PageRankConfig) map[string]float64 {
	ids := g.NodeIDs()
	n := len(ids)
	if n == 0 {
		return map[string]float64{}
	}

	rank := make(map[string]float64, n)
	for _, id := range ids {
		rank[id] = 1.0 / float64(n)
	}

	for iter := 0; iter < cfg.MaxIter; iter++ {
		next := make(map[string]float64, n)
		dangling := 0.0
		for _, id := range ids {
			if g.Degree(id) == 0 {
				dangling += rank[id]
			}
		}
		base := (1-cfg.Damping)/float64(n) + cfg.Damping*dangling/float64(n)
		for _, id := range ids {
			next[id] = base
		}
		for _, id := range ids {
			deg := g.Degree(id)
			if deg == 0 {
				continue
			}
			share := cfg.Damping * rank[id] / float64(deg)
			for _, nb := range g.Neighbors(id) {
				next[nb] += share
			}
		}

		delta := 0.0
		for _, id := range ids {
			delta += math.Abs(next[id] - rank[id])
		}
		rank = next
		if delta < cfg.Tolerance {
			break
		}
	}
	return rank
}
