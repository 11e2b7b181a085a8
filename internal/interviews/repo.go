package interviews

import "context"

type Repo interface {
	Create(ctx context.Context, iv Interview) error
	GetByID(ctx context.Context, id string) (Interview, error)
	// List returns all interviews, newest first.
	List(ctx context.Context) ([]Interview, error)
	// Upcoming returns interviews whose next date falls in [from, to],
	// soonest first. Both bounds are compared as calendar days.
	Upcoming(ctx context.Context, from, to Date) ([]Interview, error)
	Update(ctx context.Context, iv Interview) error
	Delete(ctx context.Context, id string) error
}

func cloneInterview(iv Interview) Interview {
	out := iv
	if iv.Skills != nil {
		out.Skills = append([]string(nil), iv.Skills...)
	}
	return out
}
