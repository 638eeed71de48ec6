package interviews

import (
	"context"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	items map[string]Interview
	now   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: make(map[string]Interview), now: time.Now}
}

func (r *MemoryRepo) Create(ctx context.Context, iv Interview) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.ApplicationID == iv.ApplicationID && existing.Status.Active() {
			return errActiveExists
		}
	}
	iv.UpdatedAt = r.now().UTC()
	r.items[iv.ID] = clone(iv)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Interview, error) {
	return r.find(ctx, func(iv Interview) bool { return iv.ID == id })
}

func (r *MemoryRepo) GetByToken(ctx context.Context, token string) (Interview, error) {
	if token == "" {
		return Interview{}, ErrNotFound
	}
	return r.find(ctx, func(iv Interview) bool { return iv.AccessToken == token })
}

func (r *MemoryRepo) ActiveByApplication(ctx context.Context, applicationID string) (Interview, error) {
	return r.find(ctx, func(iv Interview) bool {
		return iv.ApplicationID == applicationID && iv.Status.Active()
	})
}

func (r *MemoryRepo) LatestByApplication(ctx context.Context, applicationID string) (Interview, error) {
	if err := ctx.Err(); err != nil {
		return Interview{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest Interview
	found := false
	for _, iv := range r.items {
		if iv.ApplicationID != applicationID {
			continue
		}
		if !found || iv.ScheduledAt.After(latest.ScheduledAt) {
			latest = iv
			found = true
		}
	}
	if !found {
		return Interview{}, ErrNotFound
	}
	return clone(latest), nil
}

func (r *MemoryRepo) Mutate(ctx context.Context, id string, fn MutateFunc) (Interview, error) {
	if err := ctx.Err(); err != nil {
		return Interview{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.items[id]
	if !ok {
		return Interview{}, ErrNotFound
	}
	iv := clone(current)
	if err := fn(&iv); err != nil {
		return Interview{}, err
	}
	iv.ID = id
	iv.UpdatedAt = r.now().UTC()
	r.items[id] = clone(iv)
	return iv, nil
}

func (r *MemoryRepo) find(ctx context.Context, match func(Interview) bool) (Interview, error) {
	if err := ctx.Err(); err != nil {
		return Interview{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, iv := range r.items {
		if match(iv) {
			return clone(iv), nil
		}
	}
	return Interview{}, ErrNotFound
}

func clone(iv Interview) Interview {
	qs := make([]Question, len(iv.Questions))
	copy(qs, iv.Questions)
	iv.Questions = qs
	return iv
}
