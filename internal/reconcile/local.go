package reconcile

import (
	"context"
	"errors"

	"hiremate-backend/internal/applications"
	"hiremate-backend/internal/interviews"
	"hiremate-backend/internal/jobs"
	"hiremate-backend/internal/shared/auth"
)

const jobPageSize = 200

type jobLister interface {
	List(ctx context.Context, filter jobs.ListFilter) ([]jobs.Job, error)
}

type applicationService interface {
	ListActive(ctx context.Context, jobID string) ([]applications.Application, error)
	Promote(ctx context.Context, id string, finalScore float64, note string) (applications.Application, bool, error)
}

type interviewService interface {
	Schedule(ctx context.Context, applicationID, actor string) (interviews.Interview, bool, error)
	GetByApplication(ctx context.Context, applicationID string) (interviews.Interview, error)
}

// Local drives the services in the same process.
type Local struct {
	Jobs         jobLister
	Applications applicationService
	Interviews   interviewService
}

func NewLocal(j jobLister, a applicationService, i interviewService) *Local {
	return &Local{Jobs: j, Applications: a, Interviews: i}
}

func (l *Local) ListJobs(ctx context.Context) ([]Job, error) {
	var out []Job
	for offset := 0; ; offset += jobPageSize {
		page, err := l.Jobs.List(ctx, jobs.ListFilter{Limit: jobPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, j := range page {
			out = append(out, Job{ID: j.ID, Title: j.Title})
		}
		if len(page) < jobPageSize {
			return out, nil
		}
	}
}

func (l *Local) ListActive(ctx context.Context, jobID string) ([]Application, error) {
	apps, err := l.Applications.ListActive(ctx, jobID)
	if err != nil {
		return nil, err
	}
	out := make([]Application, 0, len(apps))
	for _, a := range apps {
		out = append(out, Application{
			ID:                 a.ID,
			JobID:              a.JobID,
			Status:             string(a.Status),
			QualificationScore: a.QualificationScore,
			FinalScore:         a.FinalScore,
		})
	}
	return out, nil
}

func (l *Local) ScheduleInterview(ctx context.Context, applicationID string) (bool, error) {
	_, created, err := l.Interviews.Schedule(ctx, applicationID, auth.RoleAutomation)
	return created, err
}

func (l *Local) InterviewFor(ctx context.Context, applicationID string) (Interview, bool, error) {
	iv, err := l.Interviews.GetByApplication(ctx, applicationID)
	if errors.Is(err, interviews.ErrNotFound) {
		return Interview{}, false, nil
	}
	if err != nil {
		return Interview{}, false, err
	}
	return Interview{ID: iv.ID, Status: string(iv.Status), Score: iv.Score}, true, nil
}

func (l *Local) Promote(ctx context.Context, applicationID string, finalScore float64, note string) (bool, error) {
	_, changed, err := l.Applications.Promote(ctx, applicationID, finalScore, note)
	return changed, err
}

var _ Pipeline = (*Local)(nil)
