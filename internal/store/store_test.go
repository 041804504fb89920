package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/fraudlens-cli/api/schemas"
)

// flexibleSQLMatcher creates a regex that is insensitive to whitespace for more robust SQL mock testing.
func flexibleSQLMatcher(sql string) string {
	trimmed := strings.TrimSpace(sql)
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(trimmed), `\s+`)
}

const (
	sqlInsertRun = `
		INSERT INTO analysis_runs (id, created_at, nodes_loaded, edges_loaded, nodes_skipped, edges_dropped, rows_skipped, closers_appended)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING;
	`
	sqlInsertRing = `
		INSERT INTO fraud_rings (id, run_id, members, size)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING;
	`
)

var entityColumns = []string{"run_id", "node_id", "kind", "degree", "fraud_neighbor_count", "risk_score", "pagerank", "reasons"}

func sampleEnvelope() *schemas.ReportEnvelope {
	return &schemas.ReportEnvelope{
		RunID:     "run-1",
		Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Stats:     schemas.IngestStats{NodesLoaded: 6, EdgesLoaded: 7, RowsSkipped: 2},
		Entities: []schemas.SuspiciousEntity{
			{
				RunID:              "run-1",
				NodeID:             "p1",
				Kind:               schemas.KindPhone,
				Degree:             2,
				FraudNeighborCount: 2,
				RiskScore:          6,
				PageRank:           0.25,
				Reasons:            []string{"phone shared by 2 fraudsters"},
			},
		},
		Rings: []schemas.FraudRing{
			{RunID: "run-1", RingID: "ring-1", Members: []string{"f1", "f2", "f3"}, Size: 3},
		},
	}
}

func TestNewStore(t *testing.T) {
	t.Run("should return error if ping fails", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		pingErr := errors.New("database unavailable")
		mockPool.ExpectPing().WillReturnError(pingErr)

		_, err = New(context.Background(), mockPool, zap.NewNop())
		require.Error(t, err)
		assert.ErrorIs(t, err, pingErr, "Error from ping should be propagated")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPersistRun(t *testing.T) {
	ctx := context.Background()

	t.Run("should persist a full envelope successfully without rollback errors", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		observedZapCore, observedLogs := observer.New(zapcore.ErrorLevel)
		observedLogger := zap.New(observedZapCore)

		mockPool.ExpectPing().WillReturnError(nil)
		s, err := New(ctx, mockPool, observedLogger)
		require.NoError(t, err)

		envelope := sampleEnvelope()

		mockPool.ExpectBegin()

		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertRun)).
			WithArgs(
				envelope.RunID,
				envelope.Timestamp.UTC(),
				envelope.Stats.NodesLoaded,
				envelope.Stats.EdgesLoaded,
				envelope.Stats.NodesSkipped,
				envelope.Stats.EdgesDropped,
				envelope.Stats.RowsSkipped,
				envelope.Stats.ClosersAppended,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		mockPool.ExpectCopyFrom(pgx.Identifier{"suspicious_entities"}, entityColumns).
			WillReturnResult(1)

		batchExp := mockPool.ExpectBatch()
		batchExp.ExpectExec(flexibleSQLMatcher(sqlInsertRing)).
			WithArgs("ring-1", "run-1", []string{"f1", "f2", "f3"}, 3).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		// Expect Commit AND the subsequent Rollback (which returns ErrTxClosed)
		mockPool.ExpectCommit()
		mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

		require.NoError(t, s.PersistRun(ctx, envelope))
		assert.NoError(t, mockPool.ExpectationsWereMet())
		assert.Empty(t, observedLogs.All(), "Expected no errors logged on successful commit")
	})

	t.Run("should skip entity and ring writes when the report is empty", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectPing().WillReturnError(nil)
		s, err := New(ctx, mockPool, zap.NewNop())
		require.NoError(t, err)

		envelope := sampleEnvelope()
		envelope.Entities = nil
		envelope.Rings = nil

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertRun)).
			WithArgs(
				envelope.RunID,
				envelope.Timestamp.UTC(),
				envelope.Stats.NodesLoaded,
				envelope.Stats.EdgesLoaded,
				envelope.Stats.NodesSkipped,
				envelope.Stats.EdgesDropped,
				envelope.Stats.RowsSkipped,
				envelope.Stats.ClosersAppended,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCommit()
		mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

		require.NoError(t, s.PersistRun(ctx, envelope))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should handle transaction begin failure", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectPing().WillReturnError(nil)
		s, err := New(ctx, mockPool, zap.NewNop())
		require.NoError(t, err)

		beginErr := errors.New("cannot begin tx")
		mockPool.ExpectBegin().WillReturnError(beginErr)

		err = s.PersistRun(ctx, sampleEnvelope())
		require.Error(t, err)
		assert.ErrorIs(t, err, beginErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should rollback if the entity copy fails", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectPing().WillReturnError(nil)
		s, err := New(ctx, mockPool, zap.NewNop())
		require.NoError(t, err)

		copyErr := errors.New("copy from failed")

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertRun)).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCopyFrom(pgx.Identifier{"suspicious_entities"}, entityColumns).
			WillReturnError(copyErr)
		mockPool.ExpectRollback()

		err = s.PersistRun(ctx, sampleEnvelope())
		require.Error(t, err)
		assert.ErrorIs(t, err, copyErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should rollback if a ring insert fails", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectPing().WillReturnError(nil)
		s, err := New(ctx, mockPool, zap.NewNop())
		require.NoError(t, err)

		batchErr := errors.New("batch execution failed")

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertRun)).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCopyFrom(pgx.Identifier{"suspicious_entities"}, entityColumns).
			WillReturnResult(1)

		batchExp := mockPool.ExpectBatch()
		batchExp.ExpectExec(flexibleSQLMatcher(sqlInsertRing)).
			WithArgs("ring-1", "run-1", []string{"f1", "f2", "f3"}, 3).
			WillReturnError(batchErr)

		mockPool.ExpectRollback()

		err = s.PersistRun(ctx, sampleEnvelope())
		require.Error(t, err)
		assert.ErrorIs(t, err, batchErr)
		assert.Contains(t, err.Error(), "failed to insert ring ring-1")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should fail on a copy count mismatch", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectPing().WillReturnError(nil)
		s, err := New(ctx, mockPool, zap.NewNop())
		require.NoError(t, err)

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertRun)).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCopyFrom(pgx.Identifier{"suspicious_entities"}, entityColumns).
			WillReturnResult(0)
		mockPool.ExpectRollback()

		err = s.PersistRun(ctx, sampleEnvelope())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mismatch in copied entity count")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
