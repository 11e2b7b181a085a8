package feedback

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of an async feedback task.
type Status string

const (
	StatusPending Status = "pending"
	StatusStarted Status = "started"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// IsTerminal reports whether no further transitions happen.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailure:
		return true
	default:
		return false
	}
}

// ParseStatus validates a stored status value.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusPending, StatusStarted, StatusSuccess, StatusFailure:
		return s, nil
	default:
		return "", fmt.Errorf("unknown task status %q", raw)
	}
}

// Task is one async feedback submission and, once terminal, its outcome.
type Task struct {
	ID          string
	Status      Status
	Result      string
	Error       string
	SourceKey   string
	FileName    string
	JobTitle    string
	Seniority   string
	Description string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	UpdatedAt   time.Time
}

// SubmitInput is a résumé upload plus the optional job context.
type SubmitInput struct {
	FileName    string
	Data        []byte
	JobTitle    string
	Seniority   string
	Description string
	RequestID   string
}
