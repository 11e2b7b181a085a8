package interviews

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// PGRepo implements Repo using Postgres. Skills are stored as TEXT[].
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `
SELECT id, company_name, job_title, job_seniority, location, notes,
       last_interview_date, next_interview_date, skills, created_at, updated_at
FROM interviews`

func (r *PGRepo) Create(ctx context.Context, iv Interview) error {
	const query = `
INSERT INTO interviews (
	id, company_name, job_title, job_seniority, location, notes,
	last_interview_date, next_interview_date, skills, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.DB.ExecContext(ctx, query,
		iv.ID,
		iv.CompanyName,
		iv.JobTitle,
		nullableString(iv.JobSeniority),
		nullableString(iv.Location),
		nullableString(iv.Notes),
		nullableDate(iv.LastInterviewDate),
		nullableDate(iv.NextInterviewDate),
		skillsArray(iv.Skills),
		iv.CreatedAt,
		iv.UpdatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Interview, error) {
	row := r.DB.QueryRowContext(ctx, selectColumns+`
WHERE id = $1
LIMIT 1`, id)
	iv, err := scanInterview(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Interview{}, ErrNotFound
		}
		return Interview{}, err
	}
	return iv, nil
}

func (r *PGRepo) List(ctx context.Context) ([]Interview, error) {
	rows, err := r.DB.QueryContext(ctx, selectColumns+`
ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *PGRepo) Upcoming(ctx context.Context, from, to Date) ([]Interview, error) {
	rows, err := r.DB.QueryContext(ctx, selectColumns+`
WHERE next_interview_date IS NOT NULL
  AND next_interview_date >= $1::date
  AND next_interview_date <= $2::date
ORDER BY next_interview_date ASC, id ASC`, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *PGRepo) Update(ctx context.Context, iv Interview) error {
	const query = `
UPDATE interviews
SET company_name = $2,
    job_title = $3,
    job_seniority = $4,
    location = $5,
    notes = $6,
    last_interview_date = $7,
    next_interview_date = $8,
    skills = $9,
    updated_at = $10
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		iv.ID,
		iv.CompanyName,
		iv.JobTitle,
		nullableString(iv.JobSeniority),
		nullableString(iv.Location),
		nullableString(iv.Notes),
		nullableDate(iv.LastInterviewDate),
		nullableDate(iv.NextInterviewDate),
		skillsArray(iv.Skills),
		iv.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM interviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInterview(s scanner) (Interview, error) {
	var iv Interview
	var seniority, location, notes sql.NullString
	var lastDate, nextDate sql.NullTime
	var skills pq.StringArray
	if err := s.Scan(
		&iv.ID,
		&iv.CompanyName,
		&iv.JobTitle,
		&seniority,
		&location,
		&notes,
		&lastDate,
		&nextDate,
		&skills,
		&iv.CreatedAt,
		&iv.UpdatedAt,
	); err != nil {
		return Interview{}, err
	}
	iv.JobSeniority = stringPtr(seniority)
	iv.Location = stringPtr(location)
	iv.Notes = stringPtr(notes)
	iv.LastInterviewDate = datePtr(lastDate)
	iv.NextInterviewDate = datePtr(nextDate)
	if skills != nil {
		iv.Skills = []string(skills)
	}
	return iv, nil
}

func collect(rows *sql.Rows) ([]Interview, error) {
	defer rows.Close()
	out := []Interview{}
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableDate(d *Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func skillsArray(skills []string) any {
	if skills == nil {
		return nil
	}
	return pq.StringArray(skills)
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func datePtr(nt sql.NullTime) *Date {
	if !nt.Valid {
		return nil
	}
	d := NewDate(nt.Time)
	return &d
}

var _ Repo = (*PGRepo)(nil)
