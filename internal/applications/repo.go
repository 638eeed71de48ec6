package applications

import "context"

// MutateFunc edits an application in place. A non-nil entry is appended to
// the log in the same atomic step; an error aborts without writing.
type MutateFunc func(app *Application) (*LogEntry, error)

// Repo persists applications and their qualification log.
type Repo interface {
	// Create stores a new application with its first log entry. It fails
	// with ErrDuplicate when the candidate already applied to the job.
	Create(ctx context.Context, app Application, entry LogEntry) error
	GetByID(ctx context.Context, id string) (Application, error)
	Mutate(ctx context.Context, id string, fn MutateFunc) (Application, error)
	// ListByJob returns the job's applications oldest first, optionally
	// restricted to statuses.
	ListByJob(ctx context.Context, jobID string, statuses []Status) ([]Application, error)
	ListByCandidate(ctx context.Context, candidateID string) ([]Application, error)
	Logs(ctx context.Context, applicationID string) ([]LogEntry, error)
}
