package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"hiremate-backend/internal/resume"
	"hiremate-backend/internal/shared/telemetry"
	"hiremate-backend/internal/skills"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 20000
)

type Service struct {
	Repo Repo
	Now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Now: time.Now}
}

// CreateInput is what a company submits. Requirements left empty are
// parsed from Description.
type CreateInput struct {
	Title       string
	Description string
	Category    string
	Location    string
	MinYears    *int
	Education   string
}

func (s *Service) Create(ctx context.Context, companyID string, in CreateInput) (Job, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	switch {
	case strings.TrimSpace(companyID) == "":
		return Job{}, fmt.Errorf("%w: company id is required", ErrInvalidInput)
	case title == "" || len(title) > maxTitleLen:
		return Job{}, fmt.Errorf("%w: title must be 1-%d characters", ErrInvalidInput, maxTitleLen)
	case description == "" || len(description) > maxDescriptionLen:
		return Job{}, fmt.Errorf("%w: description must be 1-%d characters", ErrInvalidInput, maxDescriptionLen)
	case in.MinYears != nil && (*in.MinYears < 0 || *in.MinYears > 50):
		return Job{}, fmt.Errorf("%w: minYears out of range", ErrInvalidInput)
	}

	req := Requirements{MinYears: in.MinYears}
	if req.MinYears == nil {
		req.MinYears = skills.FirstYears(description)
	}
	if strings.TrimSpace(in.Education) != "" {
		lvl, err := resume.ParseEducationLevel(in.Education)
		if err != nil {
			return Job{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		req.Education = lvl
	} else {
		req.Education = resume.RequiredEducation(description)
	}

	now := s.now()
	job := Job{
		ID:           uuid.NewString(),
		CompanyID:    companyID,
		Title:        title,
		Description:  description,
		Category:     strings.TrimSpace(in.Category),
		Location:     strings.TrimSpace(in.Location),
		Requirements: req,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.Create(ctx, job); err != nil {
		return Job{}, err
	}
	telemetry.Info("job.created", map[string]any{
		"job_id":     job.ID,
		"company_id": companyID,
		"keywords":   len(skills.JobKeywords(job.Title, job.Description, job.Category)),
	})
	return job, nil
}

func (s *Service) Get(ctx context.Context, jobID string) (Job, error) {
	if strings.TrimSpace(jobID) == "" {
		return Job{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, jobID)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Job, error) {
	return s.Repo.List(ctx, filter)
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
