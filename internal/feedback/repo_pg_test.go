package feedback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateStoresNullableMetadata(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	task := Task{
		ID:        "task-1",
		Status:    StatusPending,
		SourceKey: "feedback/task-1.pdf",
		FileName:  "cv.pdf",
		JobTitle:  "Backend Engineer",
		CreatedAt: now,
		UpdatedAt: now,
	}

	mock.ExpectExec("INSERT INTO feedback_tasks").
		WithArgs("task-1", "pending", "feedback/task-1.pdf", "cv.pdf", "Backend Engineer", nil, nil, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), task); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDScansTask(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	completed := created.Add(time.Minute)

	rows := sqlmock.NewRows([]string{
		"id", "status", "result", "error", "source_key", "file_name", "job_title", "seniority", "description",
		"created_at", "started_at", "completed_at", "updated_at",
	}).AddRow("task-1", "success", "Great resume", nil, "feedback/task-1.pdf", nil, "Backend Engineer", "Senior", nil,
		created, created, completed, completed)
	mock.ExpectQuery("SELECT id, status, result").WithArgs("task-1").WillReturnRows(rows)

	task, err := repo.GetByID(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if task.Status != StatusSuccess || task.Result != "Great resume" {
		t.Fatalf("unexpected task: %+v", task)
	}
	if task.Error != "" || task.Description != "" {
		t.Fatalf("expected empty nullable fields, got %+v", task)
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(completed) {
		t.Fatalf("expected completed_at %v, got %v", completed, task.CompletedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT id, status, result").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoMarkFailedUnknownTask(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Now().UTC()
	mock.ExpectExec("UPDATE feedback_tasks").
		WithArgs("missing", "boom", at).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM feedback_tasks").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	if err := repo.MarkFailed(context.Background(), "missing", "boom", at); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoTerminalTaskIsNotRewritten(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Now().UTC()
	mock.ExpectExec(`WHERE id = \$1 AND status NOT IN \('success', 'failure'\)`).
		WithArgs("task-1", "completing: boom", at).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM feedback_tasks").WithArgs("task-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("success"))

	err := repo.MarkFailed(context.Background(), "task-1", "completing: boom", at)
	if !errors.Is(err, ErrAlreadyTerminal) {
		t.Fatalf("expected ErrAlreadyTerminal, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoMarkStartedKeepsFirstStart(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Now().UTC()
	mock.ExpectExec(`started_at = COALESCE\(started_at, \$2\)`).
		WithArgs("task-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkStarted(context.Background(), "task-1", at); err != nil {
		t.Fatalf("MarkStarted: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
