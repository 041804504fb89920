package schemas

import "time"

// -- Analysis Result Schemas --

// SuspiciousEntity is one flagged node together with the scores that flagged
// it. It maps directly to the `suspicious_entities` table when persistence
// is enabled.
type SuspiciousEntity struct {
	RunID  string   `json:"run_id"`
	NodeID string   `json:"node_id"`
	Kind   NodeKind `json:"kind"`

	Degree             int     `json:"degree"`
	FraudNeighborCount int     `json:"fraud_neighbor_count"`
	RiskScore          float64 `json:"risk_score"`
	PageRank           float64 `json:"pagerank"`

	// Reasons lists the human-readable signals that contributed to the flag
	// (e.g. "shared contact of 3 fraudsters").
	Reasons []string `json:"reasons,omitempty"`
}

// FraudRing is a maximal clique found in the fraudster-induced subgraph.
// It has no identity beyond the run that produced it.
type FraudRing struct {
	RunID   string   `json:"run_id"`
	RingID  string   `json:"ring_id"`
	Members []string `json:"members"` // Node ids, sorted ascending.
	Size    int      `json:"size"`
}

// IngestStats reports how much of the input survived ingestion so operators
// can gauge data quality. Skips are recoverable; they never abort a batch.
type IngestStats struct {
	NodesLoaded  int `json:"nodes_loaded"`
	EdgesLoaded  int `json:"edges_loaded"`
	NodesSkipped int `json:"nodes_skipped"`
	EdgesDropped int `json:"edges_dropped"`
	RowsSkipped  int `json:"rows_skipped"`

	// ClosersAppended counts the closing delimiters added by the GML repair
	// phase. Zero for well-formed input.
	ClosersAppended int `json:"closers_appended"`
}

// ReportEnvelope is the top-level artifact written by the analyze command.
type ReportEnvelope struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`

	Stats    IngestStats        `json:"stats"`
	Entities []SuspiciousEntity `json:"entities"`
	Rings    []FraudRing        `json:"rings"`

	// Flagged is the materialized subgraph of every flagged node plus its
	// immediate neighbors, for downstream visualization.
	Flagged *Subgraph `json:"flagged,omitempty"`
}
