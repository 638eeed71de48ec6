package applications

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryRepo struct {
	mu   sync.RWMutex
	apps map[string]Application
	logs map[string][]LogEntry
	now  func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		apps: make(map[string]Application),
		logs: make(map[string][]LogEntry),
		now:  time.Now,
	}
}

func (r *MemoryRepo) Create(ctx context.Context, app Application, entry LogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.apps {
		if existing.CandidateID == app.CandidateID && existing.JobID == app.JobID {
			return ErrDuplicate
		}
	}
	now := r.now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now
	r.apps[app.ID] = app
	r.appendLocked(app.ID, entry, now)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.apps[id]
	if !ok {
		return Application{}, ErrNotFound
	}
	return app, nil
}

func (r *MemoryRepo) Mutate(ctx context.Context, id string, fn MutateFunc) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return Application{}, ErrNotFound
	}
	entry, err := fn(&app)
	if err != nil {
		return Application{}, err
	}
	now := r.now().UTC()
	app.ID = id
	app.UpdatedAt = now
	r.apps[id] = app
	if entry != nil {
		r.appendLocked(id, *entry, now)
	}
	return app, nil
}

func (r *MemoryRepo) ListByJob(ctx context.Context, jobID string, statuses []Status) ([]Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := make(map[Status]struct{}, len(statuses))
	for _, s := range statuses {
		want[s] = struct{}{}
	}
	return r.filter(func(a Application) bool {
		if a.JobID != jobID {
			return false
		}
		if len(want) == 0 {
			return true
		}
		_, ok := want[a.Status]
		return ok
	}), nil
}

func (r *MemoryRepo) ListByCandidate(ctx context.Context, candidateID string) ([]Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.filter(func(a Application) bool { return a.CandidateID == candidateID }), nil
}

func (r *MemoryRepo) Logs(ctx context.Context, applicationID string) ([]LogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.apps[applicationID]; !ok {
		return nil, ErrNotFound
	}
	out := make([]LogEntry, len(r.logs[applicationID]))
	copy(out, r.logs[applicationID])
	return out, nil
}

func (r *MemoryRepo) filter(keep func(Application) bool) []Application {
	r.mu.RLock()
	out := []Application{}
	for _, a := range r.apps {
		if keep(a) {
			out = append(out, a)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *MemoryRepo) appendLocked(appID string, entry LogEntry, now time.Time) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.ApplicationID = appID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	r.logs[appID] = append(r.logs[appID], entry)
}
