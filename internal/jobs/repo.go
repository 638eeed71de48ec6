package jobs

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("job not found")
	ErrInvalidInput = errors.New("invalid job")
)

// ListFilter narrows List. Zero value lists everything.
type ListFilter struct {
	CompanyID string
	Limit     int
	Offset    int
}

type Repo interface {
	Create(ctx context.Context, job Job) error
	GetByID(ctx context.Context, jobID string) (Job, error)
	List(ctx context.Context, filter ListFilter) ([]Job, error)
}

func clampPage(f ListFilter) ListFilter {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
