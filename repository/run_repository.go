package repository

import (
	"context"
	"errors"
	"time"

	"casillero-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrRunNotFound is returned when no run matches the query
var ErrRunNotFound = errors.New("run not found")

// RunRepository handles database operations for classification runs
type RunRepository struct {
	db *pgxpool.Pool
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *pgxpool.Pool) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run in progress
func (r *RunRepository) Create(ctx context.Context, run *models.Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Status == "" {
		run.Status = models.RunStatusInProgress
	}

	query := `
		INSERT INTO classification_runs (id, pass, status, counters)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		run.ID,
		run.Pass,
		run.Status,
		run.Counters,
	).Scan(&run.CreatedAt, &run.UpdatedAt)
}

const runColumns = `id, pass, status, counters, error_message, created_at, updated_at, completed_at`

func scanRun(row pgx.Row) (*models.Run, error) {
	run := &models.Run{}
	err := row.Scan(
		&run.ID,
		&run.Pass,
		&run.Status,
		&run.Counters,
		&run.ErrorMessage,
		&run.CreatedAt,
		&run.UpdatedAt,
		&run.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// GetByID retrieves a run by ID
func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM classification_runs WHERE id = $1`
	return scanRun(r.db.QueryRow(ctx, query, id))
}

// Latest retrieves the most recent run of a pass. An empty pass matches any.
func (r *RunRepository) Latest(ctx context.Context, pass models.Pass) (*models.Run, error) {
	query := `
		SELECT ` + runColumns + `
		FROM classification_runs
		WHERE $1 = '' OR pass = $1
		ORDER BY created_at DESC
		LIMIT 1`
	return scanRun(r.db.QueryRow(ctx, query, string(pass)))
}

// UpdateCounters stores the counters of a run in progress
func (r *RunRepository) UpdateCounters(ctx context.Context, id uuid.UUID, counters models.RunCounters) error {
	query := `
		UPDATE classification_runs SET
			counters = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, counters)
	return err
}

// Complete marks a run as completed with its final counters
func (r *RunRepository) Complete(ctx context.Context, id uuid.UUID, counters models.RunCounters) error {
	now := time.Now()
	query := `
		UPDATE classification_runs SET
			status = $2,
			counters = $3,
			completed_at = $4,
			updated_at = $4
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, models.RunStatusCompleted, counters, now)
	return err
}

// Fail marks a run as failed
func (r *RunRepository) Fail(ctx context.Context, id uuid.UUID, counters models.RunCounters, errorMessage string) error {
	query := `
		UPDATE classification_runs SET
			status = $2,
			counters = $3,
			error_message = $4,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, models.RunStatusFailed, counters, errorMessage)
	return err
}
