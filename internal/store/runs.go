package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/xid"
)

type Run struct {
	ID         xid.ID
	Subject    string
	Prefix     string
	Policy     string
	Target     int
	Kept       int
	StartedAt  time.Time
	FinishedAt *time.Time
}

type RunStore struct {
	pool *pgxpool.Pool
}

func NewRunStore(pool *pgxpool.Pool) *RunStore {
	return &RunStore{pool: pool}
}

func (store *RunStore) Insert(ctx context.Context, run *Run) error {
	_, err := store.pool.Exec(ctx, `
		INSERT INTO runs (id, subject, prefix, policy, target, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, run.ID.String(), run.Subject, run.Prefix, run.Policy, run.Target, run.StartedAt)
	if err != nil {
		return fmt.Errorf("store: run insert: %w", err)
	}
	return nil
}

func (store *RunStore) Finish(ctx context.Context, id xid.ID, kept int, finishedAt time.Time) error {
	_, err := store.pool.Exec(ctx, `
		UPDATE runs
		SET kept = $1, finished_at = $2
		WHERE id = $3
	`, kept, finishedAt, id.String())
	if err != nil {
		return fmt.Errorf("store: run finish: %w", err)
	}
	return nil
}
