// Package scoring computes per-node suspiciousness signals over a frozen
// graph snapshot. Every formula here is a pure function of graph state;
// writing a score back onto the store is a separate, explicit step
// (WriteScores), so repeated computation has no observable side effect.
package scoring

import (
	"fmt"
	"sort"

	"github.com/xkilldash9x/fraudlens-cli/api/schemas"
	"github.com/xkilldash9x/fraudlens-cli/internal/graph"
)

// RiskWeights parametrize the composite risk formula. The source analyses
// never agreed on one canonical weighting, so the coefficients live in
// configuration rather than constants.
type RiskWeights struct {
	Degree        float64 `mapstructure:"degree" yaml:"degree"`
	DirectFraud   float64 `mapstructure:"direct_fraud" yaml:"direct_fraud"`
	IndirectFraud float64 `mapstructure:"indirect_fraud" yaml:"indirect_fraud"`
}

// DefaultRiskWeights weight direct fraud adjacency most heavily, degree as a
// weak prior and one-hop-removed adjacency lightly.
func DefaultRiskWeights() RiskWeights {
	return RiskWeights{Degree: 1, DirectFraud: 2, IndirectFraud: 1}
}

// FraudNeighborCount returns the number of direct neighbors of id whose
// kind is fraudster. Missing ids count zero.
func FraudNeighborCount(g *graph.Store, id string) int {
	count := 0
	for _, n := range g.Neighbors(id) {
		if kind, err := g.Kind(n); err == nil && kind == schemas.KindFraudster {
			count++
		}
	}
	return count
}

// SharedContact is a contact node linked to strictly more fraudsters than
// the configured threshold.
type SharedContact struct {
	NodeID         string
	Kind           schemas.NodeKind
	FraudNeighbors int
}

// SharedContacts scans every contact node (phone/email/address/device) and
// flags those whose fraud-neighbor count exceeds threshold. The default
// threshold of 1 means "shared by more than one confirmed fraudster".
// Results are sorted ascending by node id.
func SharedContacts(g *graph.Store, threshold int) []SharedContact {
	var out []SharedContact
	for _, id := range g.NodeIDs() {
		kind, err := g.Kind(id)
		if err != nil || !schemas.ContactKinds[kind] {
			continue
		}
		fnc := FraudNeighborCount(g, id)
		if fnc > threshold {
			out = append(out, SharedContact{NodeID: id, Kind: kind, FraudNeighbors: fnc})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}

// CompositeRisk computes the configurable risk formula for a single node:
// degree as a weak prior, direct fraud neighbors weighted by DirectFraud,
// and neighbors that themselves touch a fraudster weighted by IndirectFraud.
func CompositeRisk(g *graph.Store, id string, w RiskWeights) float64 {
	indirect := 0
	for _, n := range g.Neighbors(id) {
		if FraudNeighborCount(g, n) > 0 {
			indirect++
		}
	}
	return w.Degree*float64(g.Degree(id)) +
		w.DirectFraud*float64(FraudNeighborCount(g, id)) +
		w.IndirectFraud*float64(indirect)
}

// CompositeRiskAll evaluates CompositeRisk for every node in the graph.
// Nodes with no edges simply score zero; no node is skipped.
func CompositeRiskAll(g *graph.Store, w RiskWeights) map[string]float64 {
	out := make(map[string]float64, g.NodeCount())
	for _, id := range g.NodeIDs() {
		out[id] = CompositeRisk(g, id, w)
	}
	return out
}

// WriteScores attaches a computed score map to the graph under the given
// attribute key. This is the only path by which scoring mutates the store.
func WriteScores(g *graph.Store, attr string, scores map[string]float64) error {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := g.SetAttr(id, attr, scores[id]); err != nil {
			return fmt.Errorf("failed to write score %q onto node %s: %w", attr, id, err)
		}
	}
	return nil
}
