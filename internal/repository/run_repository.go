package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sed-diario-api/internal/models"
)

const runColumns = `id, user_id, login, bimestre, lesson_plan_url, status, credential, report, error_message, created_at, started_at, finished_at`

// RunRepository persists asynchronous registration runs.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository constructs the repository.
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run with generated defaults.
func (r *RunRepository) Create(ctx context.Context, run *models.RegistrationRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Status == "" {
		run.Status = models.RunStatusQueued
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO registration_runs (` + runColumns + `)
VALUES (:id, :user_id, :login, :bimestre, :lesson_plan_url, :status, :credential, :report, :error_message, :created_at, :started_at, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("create registration run: %w", err)
	}
	return nil
}

// GetByID returns a run by its identifier. A missing row yields sql.ErrNoRows.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.RegistrationRun, error) {
	const query = `SELECT ` + runColumns + ` FROM registration_runs WHERE id = $1`
	var run models.RegistrationRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get registration run: %w", err)
	}
	return &run, nil
}

// ErrRunStateChanged is returned by Update when the run was no longer in
// the expected status.
var ErrRunStateChanged = errors.New("registration run state changed")

// UpdateRunParams defines the mutable fields of a run. When From is set the
// update only applies while the row is still in that status.
type UpdateRunParams struct {
	From            *models.RunStatus
	Status          *models.RunStatus
	Report          *models.RunReport
	ErrorMessage    *string
	StartedAt       *time.Time
	FinishedAt      *time.Time
	ClearCredential bool
}

// Update persists the provided changes.
func (r *RunRepository) Update(ctx context.Context, id string, params UpdateRunParams) error {
	set := make([]string, 0, 6)
	args := make([]interface{}, 0, 6)
	argPos := 1

	add := func(column string, value interface{}) {
		set = append(set, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}
	if params.Status != nil {
		add("status", *params.Status)
	}
	if params.Report != nil {
		add("report", *params.Report)
	}
	if params.ErrorMessage != nil {
		add("error_message", *params.ErrorMessage)
	}
	if params.StartedAt != nil {
		add("started_at", *params.StartedAt)
	}
	if params.FinishedAt != nil {
		add("finished_at", *params.FinishedAt)
	}
	if params.ClearCredential {
		set = append(set, "credential = NULL")
	}

	if len(set) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE registration_runs SET %s WHERE id = $%d", strings.Join(set, ", "), argPos)
	args = append(args, id)
	if params.From != nil {
		query += fmt.Sprintf(" AND status = $%d", argPos+1)
		args = append(args, *params.From)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update registration run: %w", err)
	}
	if params.From == nil {
		return nil
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update registration run: %w", err)
	}
	if n == 0 {
		return ErrRunStateChanged
	}
	return nil
}

// ListByStatus fetches runs in the given status, oldest first.
func (r *RunRepository) ListByStatus(ctx context.Context, status models.RunStatus, limit int) ([]models.RegistrationRun, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT ` + runColumns + ` FROM registration_runs WHERE status = $1 ORDER BY created_at ASC LIMIT $2`
	var runs []models.RegistrationRun
	if err := r.db.SelectContext(ctx, &runs, query, status, limit); err != nil {
		return nil, fmt.Errorf("list registration runs: %w", err)
	}
	return runs, nil
}

// MarkInterrupted fails every run left PROCESSING by a previous process.
func (r *RunRepository) MarkInterrupted(ctx context.Context, message string, at time.Time) (int64, error) {
	const query = `UPDATE registration_runs SET status = $1, error_message = $2, finished_at = $3, credential = NULL WHERE status = $4`
	res, err := r.db.ExecContext(ctx, query, models.RunStatusFailed, message, at, models.RunStatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	return n, nil
}
