package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/fraudlens-cli/api/schemas"
	"github.com/xkilldash9x/fraudlens-cli/internal/analysis"
	"github.com/xkilldash9x/fraudlens-cli/internal/config"
	"github.com/xkilldash9x/fraudlens-cli/internal/export"
	"github.com/xkilldash9x/fraudlens-cli/internal/ingest"
	"github.com/xkilldash9x/fraudlens-cli/internal/observability"
	"github.com/xkilldash9x/fraudlens-cli/internal/rings"
	"github.com/xkilldash9x/fraudlens-cli/internal/scoring"
	"github.com/xkilldash9x/fraudlens-cli/internal/store"
)

// newAnalyzeCmd creates and configures the `analyze` command.
func newAnalyzeCmd() *cobra.Command {
	analyzeCmd := &cobra.Command{
		Use:   "analyze <graph.gml>",
		Short: "Repairs, loads and analyzes a serialized fraud graph",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags so CLI values override config file and env vars.
			if err := viper.BindPFlag("analysis.max_hops", cmd.Flags().Lookup("max-hops")); err != nil {
				return err
			}
			if err := viper.BindPFlag("analysis.rings.min_size", cmd.Flags().Lookup("ring-min-size")); err != nil {
				return err
			}
			if err := viper.BindPFlag("ingest.max_nodes", cmd.Flags().Lookup("max-nodes")); err != nil {
				return err
			}
			if err := viper.BindPFlag("export.format", cmd.Flags().Lookup("format")); err != nil {
				return err
			}
			if err := viper.BindPFlag("export.force", cmd.Flags().Lookup("force")); err != nil {
				return err
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			// Flags were bound in PreRunE; re-resolve the config so the
			// overrides carry the right precedence.
			resolved, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}
			cfg = resolved

			inputPath := args[0]
			outputPath, _ := cmd.Flags().GetString("output")

			logger.Info("Starting analysis",
				zap.String("input", inputPath),
				zap.String("format", cfg.Export.Format),
				zap.Int("max_hops", cfg.Analysis.MaxHops))

			f, err := os.Open(inputPath)
			if err != nil {
				return fmt.Errorf("failed to open graph input %s: %w", inputPath, err)
			}
			defer f.Close()

			loaded, err := ingest.LoadGML(f, ingest.GMLOptions{MaxNodes: cfg.Ingest.MaxNodes}, logger)
			if err != nil {
				return fmt.Errorf("graph ingestion failed: %w", err)
			}

			pipeline := analysis.New(analysisConfigFrom(cfg), logger)
			report, err := pipeline.Run(ctx, loaded.Graph, loaded.Stats)
			if err != nil {
				return err
			}

			if cfg.Database.URL != "" {
				if err := persistRun(ctx, cfg.Database.URL, report, logger); err != nil {
					return err
				}
			}

			w, err := export.OpenOutput(outputPath, cfg.Export.Force)
			if err != nil {
				return err
			}
			exporter, err := export.New(cfg.Export.Format, w)
			if err != nil {
				return err
			}
			defer func() {
				if err := exporter.Close(); err != nil {
					logger.Error("Failed to close exporter", zap.Error(err))
				}
			}()
			if err := exporter.Write(report); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}

			logger.Info("Analysis complete",
				zap.String("run_id", report.RunID),
				zap.Int("flagged", len(report.Entities)),
				zap.Int("rings", len(report.Rings)),
				zap.Int("rows_skipped", report.Stats.RowsSkipped),
				zap.Int("nodes_skipped", report.Stats.NodesSkipped),
				zap.Int("edges_dropped", report.Stats.EdgesDropped))
			return nil
		},
	}

	analyzeCmd.Flags().StringP("output", "o", "", "Output file path for the report (default stdout).")
	analyzeCmd.Flags().StringP("format", "f", "json", "Report format: json, csv or graphml.")
	analyzeCmd.Flags().Bool("force", false, "Overwrite an existing output file.")
	analyzeCmd.Flags().Int("max-hops", 0, "Fraud-proximity traversal depth. (Overrides config/env)")
	analyzeCmd.Flags().Int("ring-min-size", 0, "Minimum fraud-ring size. (Overrides config/env)")
	analyzeCmd.Flags().Int("max-nodes", 0, "Cap GML ingestion at N node blocks (0 = unbounded).")

	return analyzeCmd
}

// analysisConfigFrom flattens the viper config into the pipeline's own
// parameter struct.
func analysisConfigFrom(c *config.Config) analysis.Config {
	return analysis.Config{
		ContactThreshold: c.Analysis.ContactThreshold,
		MaxHops:          c.Analysis.MaxHops,
		WriteBack:        c.Analysis.WriteBack,
		Weights: scoring.RiskWeights{
			Degree:        c.Analysis.Weights.Degree,
			DirectFraud:   c.Analysis.Weights.DirectFraud,
			IndirectFraud: c.Analysis.Weights.IndirectFraud,
		},
		PageRank: scoring.PageRankConfig{
			Damping:   c.Analysis.PageRank.Damping,
			Tolerance: c.Analysis.PageRank.Tolerance,
			MaxIter:   c.Analysis.PageRank.MaxIter,
		},
		Rings: rings.Options{
			MinSize:  c.Analysis.Rings.MinSize,
			MaxNodes: c.Analysis.Rings.MaxNodes,
		},
	}
}

// persistRun connects to PostgreSQL and writes the run inside one
// transaction.
func persistRun(ctx context.Context, url string, report *schemas.ReportEnvelope, logger *zap.Logger) error {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	dbStore, err := store.New(ctx, pool, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database store: %w", err)
	}
	return dbStore.PersistRun(ctx, report)
}
