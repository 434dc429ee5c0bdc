package graph

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

// PostgresCheckpointer is the durable implementation: one row per
// (thread_id, checkpoint_id) holding the run serialized as JSONB, talking
// to Postgres directly over a pgx pool.
type PostgresCheckpointer struct {
	pool *pgxpool.Pool
}

// NewPostgresCheckpointer wraps an existing pgx pool.
func NewPostgresCheckpointer(pool *pgxpool.Pool) *PostgresCheckpointer {
	return &PostgresCheckpointer{pool: pool}
}

const createCheckpointTableSQL = `
CREATE TABLE IF NOT EXISTS graph_checkpoints (
	thread_id     TEXT NOT NULL,
	checkpoint_id TEXT NOT NULL,
	state         JSONB NOT NULL,
	written_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (thread_id, checkpoint_id)
)`

// Setup creates the checkpoint table if it does not exist. Idempotent.
func (p *PostgresCheckpointer) Setup(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, createCheckpointTableSQL)
	if err != nil {
		return fmt.Errorf("graph: checkpoint table setup: %w", err)
	}
	return nil
}

// Put writes one checkpoint row. Atomic per the contract: a single INSERT
// either lands entirely or not at all.
func (p *PostgresCheckpointer) Put(ctx context.Context, threadID, checkpointID string, run *runstate.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("graph: marshal checkpoint state: %w", err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO graph_checkpoints (thread_id, checkpoint_id, state)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (thread_id, checkpoint_id) DO UPDATE SET state = EXCLUDED.state, written_at = now()`,
		threadID, checkpointID, data)
	if err != nil {
		return fmt.Errorf("graph: put checkpoint: %w", err)
	}
	return nil
}

// Get returns the latest checkpoint for a thread, or a specific one when
// checkpointID is non-empty.
func (p *PostgresCheckpointer) Get(ctx context.Context, threadID, checkpointID string) (*runstate.Run, error) {
	var data []byte
	var err error
	if checkpointID == "" {
		err = p.pool.QueryRow(ctx,
			`SELECT state FROM graph_checkpoints WHERE thread_id = $1 ORDER BY written_at DESC LIMIT 1`,
			threadID).Scan(&data)
	} else {
		err = p.pool.QueryRow(ctx,
			`SELECT state FROM graph_checkpoints WHERE thread_id = $1 AND checkpoint_id = $2`,
			threadID, checkpointID).Scan(&data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", ErrCheckpointNotFound, threadID, checkpointID, err)
	}
	var run runstate.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("graph: unmarshal checkpoint state: %w", err)
	}
	return &run, nil
}

// List returns every checkpoint id recorded for a thread, oldest first.
func (p *PostgresCheckpointer) List(ctx context.Context, threadID string) ([]string, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT checkpoint_id FROM graph_checkpoints WHERE thread_id = $1 ORDER BY written_at ASC`,
		threadID)
	if err != nil {
		return nil, fmt.Errorf("graph: list checkpoints: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("graph: scan checkpoint id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
