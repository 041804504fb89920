package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xkilldash9x/fraudlens-cli/api/schemas"
)

// CSVExporter writes the flagged-entity table: node id, kind, and the
// scores computed for it. Rings and the subgraph are JSON/GraphML concerns.
type CSVExporter struct {
	w io.WriteCloser
}

// NewCSVExporter takes ownership of the writer.
func NewCSVExporter(w io.WriteCloser) *CSVExporter {
	return &CSVExporter{w: w}
}

func (e *CSVExporter) Write(report *schemas.ReportEnvelope) error {
	writer := csv.NewWriter(e.w)
	header := []string{"run_id", "node_id", "kind", "degree", "fraud_neighbor_count", "risk_score", "pagerank", "reasons"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, ent := range report.Entities {
		record := []string{
			ent.RunID,
			ent.NodeID,
			string(ent.Kind),
			strconv.Itoa(ent.Degree),
			strconv.Itoa(ent.FraudNeighborCount),
			strconv.FormatFloat(ent.RiskScore, 'f', 4, 64),
			strconv.FormatFloat(ent.PageRank, 'g', 8, 64),
			strings.Join(ent.Reasons, "; "),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record for %s: %w", ent.NodeID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func (e *CSVExporter) Close() error {
	return e.w.Close()
}
