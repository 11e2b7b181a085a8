package interviews

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultUpcomingWindowDays bounds GET /interviews/next.
const DefaultUpcomingWindowDays = 120

type Service struct {
	Repo       Repo
	WindowDays int

	now   func() time.Time
	newID func() string
}

func NewService(repo Repo, windowDays int) *Service {
	if windowDays <= 0 {
		windowDays = DefaultUpcomingWindowDays
	}
	return &Service{
		Repo:       repo,
		WindowDays: windowDays,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Interview, error) {
	now := s.now()
	iv := Interview{
		ID:                s.newID(),
		CompanyName:       strings.TrimSpace(in.CompanyName),
		JobTitle:          strings.TrimSpace(in.JobTitle),
		JobSeniority:      trimmed(in.JobSeniority),
		Location:          trimmed(in.Location),
		Notes:             in.Notes,
		LastInterviewDate: in.LastInterviewDate,
		NextInterviewDate: in.NextInterviewDate,
		Skills:            cleanSkills(in.Skills),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := validate(iv); err != nil {
		return Interview{}, err
	}
	if err := s.Repo.Create(ctx, iv); err != nil {
		return Interview{}, fmt.Errorf("create interview: %w", err)
	}
	return iv, nil
}

func (s *Service) Get(ctx context.Context, id string) (Interview, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Interview{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Interview, error) {
	return s.Repo.List(ctx)
}

// Upcoming lists interviews from today through today plus the window,
// compared as UTC calendar days.
func (s *Service) Upcoming(ctx context.Context) ([]Interview, error) {
	today := NewDate(s.now())
	until := NewDate(today.AddDate(0, 0, s.WindowDays))
	return s.Repo.Upcoming(ctx, today, until)
}

// Update applies a partial patch and refreshes updated_at.
func (s *Service) Update(ctx context.Context, id string, patch UpdateInput) (Interview, error) {
	iv, err := s.Get(ctx, id)
	if err != nil {
		return Interview{}, err
	}

	if patch.CompanyName.Set {
		iv.CompanyName = trimmedValue(patch.CompanyName.Value)
	}
	if patch.JobTitle.Set {
		iv.JobTitle = trimmedValue(patch.JobTitle.Value)
	}
	if patch.JobSeniority.Set {
		iv.JobSeniority = trimmed(patch.JobSeniority.Value)
	}
	if patch.Location.Set {
		iv.Location = trimmed(patch.Location.Value)
	}
	if patch.Notes.Set {
		iv.Notes = patch.Notes.Value
	}
	if patch.LastInterviewDate.Set {
		iv.LastInterviewDate = patch.LastInterviewDate.Value
	}
	if patch.NextInterviewDate.Set {
		iv.NextInterviewDate = patch.NextInterviewDate.Value
	}
	if patch.Skills.Set {
		iv.Skills = nil
		if patch.Skills.Value != nil {
			iv.Skills = cleanSkills(*patch.Skills.Value)
		}
	}
	if err := validate(iv); err != nil {
		return Interview{}, err
	}

	iv.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, iv); err != nil {
		return Interview{}, err
	}
	return iv, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	return s.Repo.Delete(ctx, id)
}

func validate(iv Interview) error {
	var missing []string
	if iv.CompanyName == "" {
		missing = append(missing, "company_name")
	}
	if iv.JobTitle == "" {
		missing = append(missing, "job_title")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s must not be blank", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func trimmedValue(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func cleanSkills(skills []string) []string {
	if skills == nil {
		return nil
	}
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		if v := strings.TrimSpace(skill); v != "" {
			out = append(out, v)
		}
	}
	return out
}
