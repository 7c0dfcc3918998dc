package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned when a run id has no record.
var ErrRunNotFound = errors.New("run not found")

// CreateRun inserts a new run record.
func (s *Store) CreateRun(ctx context.Context, rec RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, project_id, run_type, description, status)
		VALUES (?, ?, ?, ?, ?);
	`, rec.RunID, rec.ProjectID, rec.RunType, rec.Description, rec.Status)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// SetRunStatus updates a live run's status.
func (s *Store) SetRunStatus(ctx context.Context, runID, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET status = ? WHERE run_id = ?;`, status, runID)
	if err != nil {
		return fmt.Errorf("set run status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set run status: %w", err)
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// FinishRun marks a run terminal with its output or error.
func (s *Store) FinishRun(ctx context.Context, runID, status, output, errText string, finishedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, output = ?, error = ?, finished_at = ?
		WHERE run_id = ?;
	`, status, output, errText, finishedAt.UTC(), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// GetRun returns one run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	var rec RunRecord
	var finished sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, project_id, run_type, description, status, output, error, created_at, finished_at
		FROM runs WHERE run_id = ?;
	`, runID).Scan(&rec.RunID, &rec.ProjectID, &rec.RunType, &rec.Description, &rec.Status,
		&rec.Output, &rec.Error, &rec.CreatedAt, &finished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	if finished.Valid {
		rec.FinishedAt = &finished.Time
	}
	return &rec, nil
}

// ListRuns returns a project's runs, newest first. An empty projectID
// lists every run.
func (s *Store) ListRuns(ctx context.Context, projectID string) ([]RunRecord, error) {
	query := `
		SELECT run_id, project_id, run_type, description, status, output, error, created_at, finished_at
		FROM runs`
	var args []any
	if projectID != "" {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY created_at DESC;`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var recs []RunRecord
	for rows.Next() {
		var rec RunRecord
		var finished sql.NullTime
		if err := rows.Scan(&rec.RunID, &rec.ProjectID, &rec.RunType, &rec.Description, &rec.Status,
			&rec.Output, &rec.Error, &rec.CreatedAt, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if finished.Valid {
			rec.FinishedAt = &finished.Time
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
