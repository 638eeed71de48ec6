package interviews

import "context"

// MutateFunc edits an interview and its questions in place; an error aborts
// without writing.
type MutateFunc func(iv *Interview) error

// Repo persists interviews together with their questions.
type Repo interface {
	// Create stores a new interview and its questions. At most one
	// scheduled or in-progress interview may exist per application.
	Create(ctx context.Context, iv Interview) error
	GetByID(ctx context.Context, id string) (Interview, error)
	GetByToken(ctx context.Context, token string) (Interview, error)
	// ActiveByApplication returns the scheduled or in-progress interview.
	ActiveByApplication(ctx context.Context, applicationID string) (Interview, error)
	// LatestByApplication returns the most recently scheduled interview in
	// any status.
	LatestByApplication(ctx context.Context, applicationID string) (Interview, error)
	Mutate(ctx context.Context, id string, fn MutateFunc) (Interview, error)
}
