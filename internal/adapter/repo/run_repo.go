package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"veogen/internal/domain"
)

// RunRepositoryPG implements domain.RunRepository.
type RunRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a new run repository backed by PostgreSQL.
func NewRunRepository(pool *pgxpool.Pool) *RunRepositoryPG {
	return &RunRepositoryPG{pool: pool}
}

// Create inserts a new run record.
func (r *RunRepositoryPG) Create(ctx context.Context, run *domain.Run) error {
	query := `
INSERT INTO runs (id, input_kind, prompt, image_uri, aspect_ratio, duration_seconds, variants, status, video_uris, error_message)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`
	uris, err := json.Marshal(run.VideoURIs)
	if err != nil {
		return fmt.Errorf("encode video uris: %w", err)
	}
	_, err = r.pool.Exec(ctx, query,
		run.ID,
		run.InputKind,
		run.Prompt,
		run.ImageURI,
		run.AspectRatio,
		run.DurationSeconds,
		run.Variants,
		run.Status,
		uris,
		run.ErrorMessage,
	)
	return err
}

// UpdateOutcome records a run's terminal status with the produced video URIs.
func (r *RunRepositoryPG) UpdateOutcome(ctx context.Context, runID string, status domain.RunStatus, videoURIs []string, errMsg string) error {
	query := `
UPDATE runs
SET status = $2,
    updated_at = NOW(),
    video_uris = $3,
    error_message = $4
WHERE id = $1;
`
	uris, err := json.Marshal(videoURIs)
	if err != nil {
		return fmt.Errorf("encode video uris: %w", err)
	}
	_, err = r.pool.Exec(ctx, query, runID, status, uris, errMsg)
	return err
}

// GetByID fetches a run by its identifier.
func (r *RunRepositoryPG) GetByID(ctx context.Context, runID string) (*domain.Run, error) {
	query := `
SELECT id, input_kind, prompt, image_uri, aspect_ratio, duration_seconds, variants, status, video_uris, error_message, created_at, updated_at
FROM runs
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, runID)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return run, nil
}

// ListRecent returns the most recent runs, newest first.
func (r *RunRepositoryPG) ListRecent(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
SELECT id, input_kind, prompt, image_uri, aspect_ratio, duration_seconds, variants, status, video_uris, error_message, created_at, updated_at
FROM runs
ORDER BY created_at DESC
LIMIT $1;
`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	var uris []byte
	if err := row.Scan(
		&run.ID,
		&run.InputKind,
		&run.Prompt,
		&run.ImageURI,
		&run.AspectRatio,
		&run.DurationSeconds,
		&run.Variants,
		&run.Status,
		&uris,
		&run.ErrorMessage,
		&run.CreatedAt,
		&run.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(uris) > 0 {
		if err := json.Unmarshal(uris, &run.VideoURIs); err != nil {
			return nil, fmt.Errorf("decode video uris: %w", err)
		}
	}
	return &run, nil
}

var _ domain.RunRepository = (*RunRepositoryPG)(nil)
