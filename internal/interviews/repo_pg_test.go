package interviews

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var interviewColumns = []string{
	"id", "company_name", "job_title", "job_seniority", "location", "notes",
	"last_interview_date", "next_interview_date", "skills", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateEncodesSkillsAndDates(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	next := NewDate(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))
	iv := Interview{
		ID:                "iv-1",
		CompanyName:       "Acme",
		JobTitle:          "Engineer",
		NextInterviewDate: &next,
		Skills:            []string{"go", "sql"},
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	mock.ExpectExec("INSERT INTO interviews").
		WithArgs("iv-1", "Acme", "Engineer", nil, nil, nil, nil, "2026-02-10", "{\"go\",\"sql\"}", now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), iv); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListScansRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	next := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(interviewColumns).
		AddRow("iv-2", "Beta", "Engineer", "Senior", nil, nil, nil, next, []byte("{go,sql}"), now, now).
		AddRow("iv-1", "Acme", "Engineer", nil, nil, nil, nil, nil, nil, now, now)
	mock.ExpectQuery("ORDER BY created_at DESC").WillReturnRows(rows)

	items, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	first := items[0]
	if first.JobSeniority == nil || *first.JobSeniority != "Senior" {
		t.Fatalf("unexpected seniority %v", first.JobSeniority)
	}
	if first.NextInterviewDate == nil || first.NextInterviewDate.String() != "2026-02-10" {
		t.Fatalf("unexpected next date %v", first.NextInterviewDate)
	}
	if len(first.Skills) != 2 || first.Skills[1] != "sql" {
		t.Fatalf("unexpected skills %v", first.Skills)
	}
	if items[1].Skills != nil || items[1].Location != nil {
		t.Fatalf("expected nil optionals, got %+v", items[1])
	}
}

func TestPGRepoUpcomingPassesDateBounds(t *testing.T) {
	repo, mock := newMockRepo(t)
	from := NewDate(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	to := NewDate(from.AddDate(0, 0, 120))

	mock.ExpectQuery("next_interview_date IS NOT NULL").
		WithArgs("2026-03-10", "2026-07-08").
		WillReturnRows(sqlmock.NewRows(interviewColumns))

	items, err := repo.Upcoming(context.Background(), from, to)
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", items)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM interviews").WithArgs("missing").WillReturnRows(sqlmock.NewRows(interviewColumns))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoDeleteNoRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("DELETE FROM interviews").WithArgs("iv-1").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "iv-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
