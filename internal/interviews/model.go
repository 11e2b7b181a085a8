package interviews

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day in UTC. It accepts YYYY-MM-DD or RFC3339 on input
// and always renders as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate truncates t to its UTC calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD or an RFC3339 timestamp.
func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return NewDate(t), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC3339", raw)
	}
	return NewDate(t), nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Interview is one tracked interview process.
type Interview struct {
	ID                string    `json:"id"`
	CompanyName       string    `json:"company_name"`
	JobTitle          string    `json:"job_title"`
	JobSeniority      *string   `json:"job_seniority"`
	Location          *string   `json:"location"`
	Notes             *string   `json:"notes"`
	LastInterviewDate *Date     `json:"last_interview_date"`
	NextInterviewDate *Date     `json:"next_interview_date"`
	Skills            []string  `json:"skills"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CreateInput is the body of POST /interviews.
type CreateInput struct {
	CompanyName       string   `json:"company_name" binding:"required"`
	JobTitle          string   `json:"job_title" binding:"required"`
	JobSeniority      *string  `json:"job_seniority"`
	Location          *string  `json:"location"`
	Notes             *string  `json:"notes"`
	LastInterviewDate *Date    `json:"last_interview_date"`
	NextInterviewDate *Date    `json:"next_interview_date"`
	Skills            []string `json:"skills"`
}

// Field is one member of a partial patch. Set reports whether the key was
// present in the body; a present null leaves Value nil and clears the column.
type Field[T any] struct {
	Set   bool
	Value *T
}

// Present returns a set field holding v.
func Present[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

// Null returns a set field that clears the column.
func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

// UpdateInput is the body of PUT /interviews/:id. Absent keys are left
// unchanged; keys sent as null are cleared.
type UpdateInput struct {
	CompanyName       Field[string]   `json:"company_name"`
	JobTitle          Field[string]   `json:"job_title"`
	JobSeniority      Field[string]   `json:"job_seniority"`
	Location          Field[string]   `json:"location"`
	Notes             Field[string]   `json:"notes"`
	LastInterviewDate Field[Date]     `json:"last_interview_date"`
	NextInterviewDate Field[Date]     `json:"next_interview_date"`
	Skills            Field[[]string] `json:"skills"`
}
