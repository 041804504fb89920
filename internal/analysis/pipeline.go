// Package analysis wires the per-run pipeline: a frozen graph snapshot goes
// through the independent scoring passes and the ring detector, the flagged
// population is materialized, and everything is folded into the report
// envelope.
package analysis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/fraudlens-cli/api/schemas"
	"github.com/xkilldash9x/fraudlens-cli/internal/graph"
	"github.com/xkilldash9x/fraudlens-cli/internal/rings"
	"github.com/xkilldash9x/fraudlens-cli/internal/scoring"
	"github.com/xkilldash9x/fraudlens-cli/internal/traversal"
)

// Config collects every tunable of a single analysis run.
type Config struct {
	// ContactThreshold: a contact node is suspicious when its fraud-neighbor
	// count is strictly greater than this.
	ContactThreshold int `mapstructure:"contact_threshold" yaml:"contact_threshold"`

	// MaxHops bounds the fraud-proximity traversal that flags members near
	// confirmed fraudsters.
	MaxHops int `mapstructure:"max_hops" yaml:"max_hops"`

	Weights  scoring.RiskWeights    `mapstructure:"weights" yaml:"weights"`
	PageRank scoring.PageRankConfig `mapstructure:"pagerank" yaml:"pagerank"`
	Rings    rings.Options          `mapstructure:"rings" yaml:"rings"`

	// WriteBack controls whether derived scores are attached to the store
	// as node attributes after the passes complete.
	WriteBack bool `mapstructure:"write_back" yaml:"write_back"`
}

// DefaultConfig mirrors the documented defaults of each pass.
func DefaultConfig() Config {
	return Config{
		ContactThreshold: 1,
		MaxHops:          2,
		Weights:          scoring.DefaultRiskWeights(),
		PageRank:         scoring.DefaultPageRankConfig(),
		Rings:            rings.DefaultOptions(),
		WriteBack:        true,
	}
}

// Pipeline runs the analysis passes over one graph store.
type Pipeline struct {
	cfg Config
	log *zap.Logger
}

// New creates a pipeline with the given configuration.
func New(cfg Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, log: logger.Named("AnalysisPipeline")}
}

// Run executes every pass against g and assembles the report. Ingestion
// must have completed before Run is called: the passes assume a snapshot
// that nobody mutates concurrently. The scoring passes are independent and
// read-only, so they run concurrently under an errgroup; the explicit
// write-back happens only after the group has finished.
func (p *Pipeline) Run(ctx context.Context, g *graph.Store, stats schemas.IngestStats) (*schemas.ReportEnvelope, error) {
	runID := uuid.New().String()
	start := time.Now()
	fraudsters := g.NodesByKind(schemas.KindFraudster)

	p.log.Info("Starting analysis run",
		zap.String("run_id", runID),
		zap.Int("nodes", g.NodeCount()),
		zap.Int("edges", g.EdgeCount()),
		zap.Int("fraudsters", len(fraudsters)))

	var (
		riskScores   map[string]float64
		pageranks    map[string]float64
		contacts     []scoring.SharedContact
		nearMembers  []string
		cliqueResult [][]string
	)

	eg, _ := errgroup.WithContext(ctx)
	eg.Go(func() error {
		riskScores = scoring.CompositeRiskAll(g, p.cfg.Weights)
		return nil
	})
	eg.Go(func() error {
		pageranks = scoring.PageRank(g, p.cfg.PageRank)
		return nil
	})
	eg.Go(func() error {
		contacts = scoring.SharedContacts(g, p.cfg.ContactThreshold)
		return nil
	})
	eg.Go(func() error {
		nearMembers = traversal.ReachableWithin(g, fraudsters, p.cfg.MaxHops,
			traversal.KindIs(g, string(schemas.KindMember)))
		return nil
	})
	eg.Go(func() error {
		var err error
		cliqueResult, err = rings.FindRings(g, fraudsters, p.cfg.Rings)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("analysis pass failed: %w", err)
	}

	if p.cfg.WriteBack {
		if err := scoring.WriteScores(g, "suspicious_score", riskScores); err != nil {
			return nil, err
		}
		if err := scoring.WriteScores(g, "pagerank", pageranks); err != nil {
			return nil, err
		}
	}

	// Assemble the flagged population: shared contacts plus members inside
	// the fraud influence zone.
	reasons := make(map[string][]string)
	for _, c := range contacts {
		reasons[c.NodeID] = append(reasons[c.NodeID],
			fmt.Sprintf("%s shared by %d fraudsters", c.Kind, c.FraudNeighbors))
	}
	for _, id := range nearMembers {
		reasons[id] = append(reasons[id],
			fmt.Sprintf("member within %d hops of a fraudster", p.cfg.MaxHops))
	}

	flaggedIDs := make([]string, 0, len(reasons))
	for id := range reasons {
		flaggedIDs = append(flaggedIDs, id)
	}
	sort.Strings(flaggedIDs)

	entities := make([]schemas.SuspiciousEntity, 0, len(flaggedIDs))
	for _, id := range flaggedIDs {
		kind, err := g.Kind(id)
		if err != nil {
			continue
		}
		entities = append(entities, schemas.SuspiciousEntity{
			RunID:              runID,
			NodeID:             id,
			Kind:               kind,
			Degree:             g.Degree(id),
			FraudNeighborCount: scoring.FraudNeighborCount(g, id),
			RiskScore:          riskScores[id],
			PageRank:           pageranks[id],
			Reasons:            reasons[id],
		})
	}

	ringFindings := make([]schemas.FraudRing, 0, len(cliqueResult))
	ringMembers := make(map[string]struct{})
	for _, members := range cliqueResult {
		ringFindings = append(ringFindings, schemas.FraudRing{
			RunID:   runID,
			RingID:  uuid.New().String(),
			Members: members,
			Size:    len(members),
		})
		for _, m := range members {
			ringMembers[m] = struct{}{}
		}
	}

	// Materialize the review subgraph: every flagged node and ring member
	// plus immediate neighbors.
	seeds := make([]string, 0, len(flaggedIDs)+len(ringMembers))
	seeds = append(seeds, flaggedIDs...)
	for m := range ringMembers {
		seeds = append(seeds, m)
	}
	flagged := graph.Snapshot(graph.Extract(g, seeds, true))

	p.log.Info("Analysis run complete",
		zap.String("run_id", runID),
		zap.Int("flagged_entities", len(entities)),
		zap.Int("rings", len(ringFindings)),
		zap.Duration("elapsed", time.Since(start)))

	return &schemas.ReportEnvelope{
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		Stats:     stats,
		Entities:  entities,
		Rings:     ringFindings,
		Flagged:   flagged,
	}, nil
}
