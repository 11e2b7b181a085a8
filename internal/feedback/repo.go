package feedback

import (
	"context"
	"time"
)

// Repo persists feedback tasks. Each task row is written by the submitting
// handler once and afterwards only by the worker that runs it.
type Repo interface {
	Create(ctx context.Context, task Task) error
	GetByID(ctx context.Context, id string) (Task, error)
	MarkStarted(ctx context.Context, id string, at time.Time) error
	MarkSucceeded(ctx context.Context, id, result string, at time.Time) error
	MarkFailed(ctx context.Context, id, errMsg string, at time.Time) error
}
