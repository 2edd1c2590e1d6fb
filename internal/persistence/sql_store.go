package persistence

import (
	"LandLedger/internal/entity"
	"LandLedger/internal/event"
	"LandLedger/internal/observability"
	"LandLedger/internal/store"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// SQLStore persists records as JSON documents keyed by (kind, id), with a
// single-row checkpoint written in the same transaction.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	logger  zerolog.Logger
	metrics *observability.Metrics

	loadQuery       string
	upsertQuery     string
	deleteQuery     string
	checkpointQuery string
	lastQuery       string
}

func NewSQLStore(db *sql.DB, dialect Dialect, logger zerolog.Logger, metrics *observability.Metrics) *SQLStore {
	return &SQLStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With().Str("component", "sql_store").Str("dialect", string(dialect)).Logger(),
		metrics: metrics,

		loadQuery: dialect.Rebind(`SELECT doc FROM land_entities WHERE kind = ? AND id = ?`),
		upsertQuery: dialect.Rebind(`INSERT INTO land_entities (kind, id, doc, updated_block)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (kind, id) DO UPDATE SET doc = excluded.doc, updated_block = excluded.updated_block`),
		deleteQuery: dialect.Rebind(`DELETE FROM land_entities WHERE kind = ? AND id = ?`),
		checkpointQuery: dialect.Rebind(`INSERT INTO land_checkpoint
			(id, block, tx_index, log_index, event_type, idempotency_key, chain_hash, events, updated_at_ms)
			VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				block = excluded.block,
				tx_index = excluded.tx_index,
				log_index = excluded.log_index,
				event_type = excluded.event_type,
				idempotency_key = excluded.idempotency_key,
				chain_hash = excluded.chain_hash,
				events = excluded.events,
				updated_at_ms = excluded.updated_at_ms`),
		lastQuery: `SELECT block, tx_index, log_index, event_type, idempotency_key, chain_hash, events, updated_at_ms
			FROM land_checkpoint WHERE id = 1`,
	}
}

func (s *SQLStore) Load(ctx context.Context, kind entity.Kind, id string) ([]byte, bool, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, s.loadQuery, string(kind), id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s %q: %w", kind, id, err)
	}
	return []byte(doc), true, nil
}

// Commit applies every change and the checkpoint in one transaction.
func (s *SQLStore) Commit(ctx context.Context, cs *store.Changeset) error {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.recordError("tx_begin")
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := s.write(ctx, tx, cs); err != nil {
		_ = tx.Rollback()
		s.logger.Warn().Err(err).Int("changes", cs.Len()).Msg("commit rolled back")
		return err
	}

	if err := tx.Commit(); err != nil {
		s.recordError("tx_commit")
		return fmt.Errorf("commit tx: %w", err)
	}

	if s.metrics != nil {
		s.metrics.PersistCommitDur.Observe(time.Since(start).Seconds())
	}
	return nil
}

func (s *SQLStore) write(ctx context.Context, tx *sql.Tx, cs *store.Changeset) error {
	var block int64
	if cs.Checkpoint != nil {
		block = int64(cs.Checkpoint.Position.Block)
	}

	for _, c := range cs.Changes {
		switch c.Op {
		case store.OpSave:
			if _, err := tx.ExecContext(ctx, s.upsertQuery, string(c.Kind), c.ID, string(c.Doc), block); err != nil {
				s.recordError("upsert")
				return fmt.Errorf("upsert %s %q: %w", c.Kind, c.ID, classify(err))
			}
		case store.OpRemove:
			if _, err := tx.ExecContext(ctx, s.deleteQuery, string(c.Kind), c.ID); err != nil {
				s.recordError("delete")
				return fmt.Errorf("delete %s %q: %w", c.Kind, c.ID, classify(err))
			}
		default:
			return fmt.Errorf("unknown op %d for %s %q", c.Op, c.Kind, c.ID)
		}
	}

	if cp := cs.Checkpoint; cp != nil {
		_, err := tx.ExecContext(ctx, s.checkpointQuery,
			int64(cp.Position.Block), int64(cp.Position.TxIndex), int64(cp.Position.LogIndex),
			cp.EventType, cp.IdempotencyKey, cp.ChainHash, cp.Events, cp.UpdatedAt.UnixMilli(),
		)
		if err != nil {
			s.recordError("checkpoint")
			return fmt.Errorf("write checkpoint: %w", classify(err))
		}
	}
	return nil
}

// classify marks Postgres data exceptions (class 22) and integrity
// violations (class 23) as store.ErrRejected.
func classify(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code.Class() {
	case "22", "23":
		return fmt.Errorf("%w: %w", store.ErrRejected, err)
	}
	return err
}

func (s *SQLStore) LastCheckpoint(ctx context.Context) (*store.Checkpoint, error) {
	var (
		block, txIndex, logIndex int64
		updatedAt                int64
		cp                       store.Checkpoint
	)
	err := s.db.QueryRowContext(ctx, s.lastQuery).Scan(
		&block, &txIndex, &logIndex,
		&cp.EventType, &cp.IdempotencyKey, &cp.ChainHash, &cp.Events, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	cp.Position = event.Position{Block: uint64(block), TxIndex: uint64(txIndex), LogIndex: uint64(logIndex)}
	cp.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &cp, nil
}

// CountByKind returns the number of stored records per kind.
func (s *SQLStore) CountByKind(ctx context.Context) (map[entity.Kind]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM land_entities GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	defer rows.Close()

	counts := make(map[entity.Kind]int64)
	for rows.Next() {
		var (
			kind string
			n    int64
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[entity.Kind(kind)] = n
	}
	return counts, rows.Err()
}

// Ping checks database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) recordError(stage string) {
	if s.metrics != nil {
		s.metrics.PersistErrors.WithLabelValues(stage).Inc()
	}
}

var _ store.Store = (*SQLStore)(nil)
