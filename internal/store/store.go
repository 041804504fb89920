// Package store persists analysis runs to PostgreSQL when a database URL is
// configured. Persistence is optional; the analyze command works entirely
// in memory without it.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xkilldash9x/fraudlens-cli/api/schemas"
)

// DBPool abstracts pgxpool.Pool so the store can be mocked in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Store provides the PostgreSQL persistence layer for analysis artifacts.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a store and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// PersistRun writes one report envelope inside a single transaction: the
// run row, every flagged entity, and every ring membership. A failure rolls
// the whole run back; a half-persisted run is never left behind.
func (s *Store) PersistRun(ctx context.Context, report *schemas.ReportEnvelope) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	if err := s.persistRunRow(ctx, tx, report); err != nil {
		return err
	}
	if len(report.Entities) > 0 {
		if err := s.persistEntities(ctx, tx, report.Entities); err != nil {
			return err
		}
	}
	if len(report.Rings) > 0 {
		if err := s.persistRings(ctx, tx, report.Rings); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Info("Persisted analysis run",
		zap.String("run_id", report.RunID),
		zap.Int("entities", len(report.Entities)),
		zap.Int("rings", len(report.Rings)))
	return nil
}

func (s *Store) persistRunRow(ctx context.Context, tx pgx.Tx, report *schemas.ReportEnvelope) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO analysis_runs (id, created_at, nodes_loaded, edges_loaded, nodes_skipped, edges_dropped, rows_skipped, closers_appended)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING;
	`, report.RunID, report.Timestamp.UTC(),
		report.Stats.NodesLoaded, report.Stats.EdgesLoaded,
		report.Stats.NodesSkipped, report.Stats.EdgesDropped,
		report.Stats.RowsSkipped, report.Stats.ClosersAppended)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", report.RunID, err)
	}
	return nil
}

func (s *Store) persistEntities(ctx context.Context, tx pgx.Tx, entities []schemas.SuspiciousEntity) error {
	rows := make([][]interface{}, len(entities))
	for i, e := range entities {
		rows[i] = []interface{}{
			e.RunID, e.NodeID, string(e.Kind),
			e.Degree, e.FraudNeighborCount, e.RiskScore, e.PageRank,
			e.Reasons,
		}
	}

	copyCount, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"suspicious_entities"},
		[]string{"run_id", "node_id", "kind", "degree", "fraud_neighbor_count", "risk_score", "pagerank", "reasons"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy suspicious entities: %w", err)
	}
	if int(copyCount) != len(entities) {
		return fmt.Errorf("mismatch in copied entity count: expected %d, got %d", len(entities), copyCount)
	}
	return nil
}

func (s *Store) persistRings(ctx context.Context, tx pgx.Tx, rings []schemas.FraudRing) error {
	batch := &pgx.Batch{}
	sql := `
		INSERT INTO fraud_rings (id, run_id, members, size)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING;
	`
	for _, r := range rings {
		batch.Queue(sql, r.RingID, r.RunID, r.Members, r.Size)
	}

	br := tx.SendBatch(ctx, batch)
	if br == nil {
		return fmt.Errorf("failed to send batch: batch results is nil")
	}
	defer func() {
		_ = br.Close()
	}()

	for i := range rings {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert ring %s: %w", rings[i].RingID, err)
		}
	}
	return nil
}
