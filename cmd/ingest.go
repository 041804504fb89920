package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/fraudlens-cli/internal/export"
	"github.com/xkilldash9x/fraudlens-cli/internal/graph"
	"github.com/xkilldash9x/fraudlens-cli/internal/ingest"
	"github.com/xkilldash9x/fraudlens-cli/internal/observability"
)

// newIngestCmd creates the `ingest` command: tabular rows in, GML out.
func newIngestCmd() *cobra.Command {
	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Builds a fraud graph from tabular entity-resolution rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			csvPath, _ := cmd.Flags().GetString("csv")
			outputPath, _ := cmd.Flags().GetString("output")
			force, _ := cmd.Flags().GetBool("force")

			if csvPath == "" {
				return fmt.Errorf("--csv input path is required")
			}

			f, err := os.Open(csvPath)
			if err != nil {
				return fmt.Errorf("failed to open csv input %s: %w", csvPath, err)
			}
			defer f.Close()

			rows, err := ingest.ReadCSVRows(f)
			if err != nil {
				return err
			}
			result := ingest.BuildFromRows(rows, logger)

			w, err := export.OpenOutput(outputPath, force)
			if err != nil {
				return err
			}
			defer w.Close()

			if err := export.WriteGML(w, graph.Snapshot(result.Graph)); err != nil {
				return err
			}

			logger.Info("Ingestion complete",
				zap.Int("rows", len(rows)),
				zap.Int("rows_skipped", result.Stats.RowsSkipped),
				zap.Int("nodes", result.Stats.NodesLoaded),
				zap.Int("edges", result.Stats.EdgesLoaded))

			fmt.Printf("Ingested %d rows (%d skipped): %d nodes, %d edges\n",
				len(rows), result.Stats.RowsSkipped,
				result.Stats.NodesLoaded, result.Stats.EdgesLoaded)
			return nil
		},
	}

	ingestCmd.Flags().String("csv", "", "Path to the entity-resolution CSV input.")
	ingestCmd.Flags().StringP("output", "o", "", "Output path for the serialized graph (default stdout).")
	ingestCmd.Flags().Bool("force", false, "Overwrite an existing output file.")

	return ingestCmd
}
