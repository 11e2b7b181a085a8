package interviews

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo keeps interviews in process memory for dev and tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	items map[string]Interview
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: make(map[string]Interview)}
}

func (r *MemoryRepo) Create(ctx context.Context, iv Interview) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[iv.ID] = cloneInterview(iv)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Interview, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	iv, ok := r.items[id]
	if !ok {
		return Interview{}, ErrNotFound
	}
	return cloneInterview(iv), nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]Interview, error) {
	r.mu.RLock()
	out := make([]Interview, 0, len(r.items))
	for _, iv := range r.items {
		out = append(out, cloneInterview(iv))
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) Upcoming(ctx context.Context, from, to Date) ([]Interview, error) {
	r.mu.RLock()
	var out []Interview
	for _, iv := range r.items {
		if iv.NextInterviewDate == nil {
			continue
		}
		day := NewDate(iv.NextInterviewDate.Time)
		if day.Before(from.Time) || day.After(to.Time) {
			continue
		}
		out = append(out, cloneInterview(iv))
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NextInterviewDate.Before(out[j].NextInterviewDate.Time)
	})
	if out == nil {
		out = []Interview{}
	}
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, iv Interview) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[iv.ID]; !ok {
		return ErrNotFound
	}
	r.items[iv.ID] = cloneInterview(iv)
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
