package feedback

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory task store for dev and tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

// NewMemoryRepo creates an empty store.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tasks: make(map[string]Task)}
}

func (r *MemoryRepo) Create(ctx context.Context, task Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = task
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return task, nil
}

func (r *MemoryRepo) MarkStarted(ctx context.Context, id string, at time.Time) error {
	return r.update(id, func(t *Task) {
		t.Status = StatusStarted
		if t.StartedAt == nil {
			t.StartedAt = &at
		}
		t.UpdatedAt = at
	})
}

func (r *MemoryRepo) MarkSucceeded(ctx context.Context, id, result string, at time.Time) error {
	return r.update(id, func(t *Task) {
		t.Status = StatusSuccess
		t.Result = result
		t.Error = ""
		t.CompletedAt = &at
		t.UpdatedAt = at
	})
}

func (r *MemoryRepo) MarkFailed(ctx context.Context, id, errMsg string, at time.Time) error {
	return r.update(id, func(t *Task) {
		t.Status = StatusFailure
		t.Error = errMsg
		t.CompletedAt = &at
		t.UpdatedAt = at
	})
}

func (r *MemoryRepo) update(id string, fn func(*Task)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return ErrNotFound
	}
	if task.Status.IsTerminal() {
		return ErrAlreadyTerminal
	}
	fn(&task)
	r.tasks[id] = task
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
