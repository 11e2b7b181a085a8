package feedback

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new task.
func (r *PGRepo) Create(ctx context.Context, task Task) error {
	const query = `
INSERT INTO feedback_tasks (
	id, status, source_key, file_name, job_title, seniority, description, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`
	_, err := r.DB.ExecContext(ctx, query,
		task.ID,
		string(task.Status),
		task.SourceKey,
		nullString(task.FileName),
		nullString(task.JobTitle),
		nullString(task.Seniority),
		nullString(task.Description),
		task.CreatedAt,
	)
	return err
}

// GetByID returns a task by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Task, error) {
	const query = `
SELECT id, status, result, error, source_key, file_name, job_title, seniority, description,
       created_at, started_at, completed_at, updated_at
FROM feedback_tasks
WHERE id = $1
LIMIT 1`
	var t Task
	var status string
	var result, errMsg, fileName, jobTitle, seniority, description sql.NullString
	var startedAt, completedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&status,
		&result,
		&errMsg,
		&t.SourceKey,
		&fileName,
		&jobTitle,
		&seniority,
		&description,
		&t.CreatedAt,
		&startedAt,
		&completedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		return Task{}, err
	}
	parsed, err := ParseStatus(status)
	if err != nil {
		return Task{}, err
	}
	t.Status = parsed
	t.Result = result.String
	t.Error = errMsg.String
	t.FileName = fileName.String
	t.JobTitle = jobTitle.String
	t.Seniority = seniority.String
	t.Description = description.String
	if startedAt.Valid {
		t.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return t, nil
}

// MarkStarted moves a task to started, keeping the first start time on redelivery.
func (r *PGRepo) MarkStarted(ctx context.Context, id string, at time.Time) error {
	const query = `
UPDATE feedback_tasks
SET status = 'started',
    started_at = COALESCE(started_at, $2),
    updated_at = $2
WHERE id = $1 AND status NOT IN ('success', 'failure')`
	return r.transition(ctx, query, id, at)
}

// MarkSucceeded stores the result text.
func (r *PGRepo) MarkSucceeded(ctx context.Context, id, result string, at time.Time) error {
	const query = `
UPDATE feedback_tasks
SET status = 'success',
    result = $2,
    error = NULL,
    completed_at = $3,
    updated_at = $3
WHERE id = $1 AND status NOT IN ('success', 'failure')`
	return r.transition(ctx, query, id, result, at)
}

// MarkFailed stores the failure message.
func (r *PGRepo) MarkFailed(ctx context.Context, id, errMsg string, at time.Time) error {
	const query = `
UPDATE feedback_tasks
SET status = 'failure',
    error = $2,
    completed_at = $3,
    updated_at = $3
WHERE id = $1 AND status NOT IN ('success', 'failure')`
	return r.transition(ctx, query, id, errMsg, at)
}

// transition runs a guarded status update; args[0] must be the task id.
// Zero affected rows means the task is missing or already terminal.
func (r *PGRepo) transition(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var status string
	err = r.DB.QueryRowContext(ctx, `SELECT status FROM feedback_tasks WHERE id = $1`, args[0]).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrAlreadyTerminal
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ Repo = (*PGRepo)(nil)
