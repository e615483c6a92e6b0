package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateRun inserts a new PENDING run and returns it. The insert fires the
// notification trigger, so creating a run is also what schedules it.
func (db *DB) CreateRun(ctx context.Context, query string) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`INSERT INTO runs (id, query, status)
		 VALUES ($1, $2, 'PENDING')
		 RETURNING id, query, status, leads_count, error, created_at, updated_at`,
		uuid.NewString(), query,
	).Scan(&run.ID, &run.Query, &run.Status, &run.LeadsCount, &run.Error, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return &run, nil
}

// GetRun retrieves a run by ID. Returns nil without error when not found.
func (db *DB) GetRun(ctx context.Context, runID string) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, query, status, leads_count, error, created_at, updated_at
		 FROM runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.Query, &run.Status, &run.LeadsCount, &run.Error, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns retrieves recent runs, newest first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, query, status, leads_count, error, created_at, updated_at
		 FROM runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Query, &run.Status, &run.LeadsCount, &run.Error, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// MarkRunCompleted transitions a PENDING run to COMPLETED with its final lead
// count. The status guard makes the terminal transition happen at most once.
func (db *DB) MarkRunCompleted(ctx context.Context, runID string, leadsCount int) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE runs SET status = 'COMPLETED', leads_count = $1, updated_at = NOW()
		 WHERE id = $2 AND status = 'PENDING'`,
		leadsCount, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark run completed: %w", err)
	}
	return nil
}

// MarkRunFailed transitions a PENDING run to FAILED with an error message.
func (db *DB) MarkRunFailed(ctx context.Context, runID string, message string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE runs SET status = 'FAILED', error = $1, updated_at = NOW()
		 WHERE id = $2 AND status = 'PENDING'`,
		message, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}
	return nil
}
