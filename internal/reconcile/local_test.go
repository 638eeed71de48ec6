package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiremate-backend/internal/applications"
	"hiremate-backend/internal/interviews"
	"hiremate-backend/internal/jobs"
	"hiremate-backend/internal/shared/auth"
)

type stubJobs struct{ all []jobs.Job }

func (s stubJobs) List(_ context.Context, f jobs.ListFilter) ([]jobs.Job, error) {
	if f.Offset >= len(s.all) {
		return nil, nil
	}
	end := min(f.Offset+f.Limit, len(s.all))
	return s.all[f.Offset:end], nil
}

type stubApps struct {
	active   []applications.Application
	promoted []string
}

func (s *stubApps) ListActive(context.Context, string) ([]applications.Application, error) {
	return s.active, nil
}

func (s *stubApps) Promote(_ context.Context, id string, _ float64, _ string) (applications.Application, bool, error) {
	s.promoted = append(s.promoted, id)
	return applications.Application{ID: id}, true, nil
}

type stubInterviews struct {
	actor string
}

func (s *stubInterviews) Schedule(_ context.Context, appID, actor string) (interviews.Interview, bool, error) {
	s.actor = actor
	return interviews.Interview{ApplicationID: appID}, true, nil
}

func (s *stubInterviews) GetByApplication(_ context.Context, appID string) (interviews.Interview, error) {
	if appID == "none" {
		return interviews.Interview{}, interviews.ErrNotFound
	}
	sc := 64
	return interviews.Interview{ID: "iv", Status: interviews.StatusCompleted, Score: &sc}, nil
}

func TestLocalPagesThroughJobs(t *testing.T) {
	all := make([]jobs.Job, jobPageSize+3)
	for i := range all {
		all[i] = jobs.Job{ID: "job", Title: "t"}
	}
	l := NewLocal(stubJobs{all: all}, &stubApps{}, &stubInterviews{})

	got, err := l.ListJobs(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, jobPageSize+3)
}

func TestLocalMapsServices(t *testing.T) {
	q := 70.0
	apps := &stubApps{active: []applications.Application{
		{ID: "a-1", JobID: "job-1", Status: applications.StatusQualified, QualificationScore: &q},
	}}
	ivs := &stubInterviews{}
	l := NewLocal(stubJobs{}, apps, ivs)
	ctx := context.Background()

	active, err := l.ListActive(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, StatusQualified, active[0].Status)

	created, err := l.ScheduleInterview(ctx, "a-1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, auth.RoleAutomation, ivs.actor)

	iv, found, err := l.InterviewFor(ctx, "a-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, InterviewCompleted, iv.Status)
	assert.Equal(t, 64, *iv.Score)

	_, found, err = l.InterviewFor(ctx, "none")
	require.NoError(t, err)
	assert.False(t, found)

	changed, err := l.Promote(ctx, "a-1", 70, promotionNote)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"a-1"}, apps.promoted)
}
