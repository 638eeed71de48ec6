package jobs

import (
	"time"

	"hiremate-backend/internal/evaluation"
	"hiremate-backend/internal/qualification"
	"hiremate-backend/internal/resume"
)

// Requirements are parsed from the description when a job is created unless
// the poster supplies them.
type Requirements struct {
	MinYears  *int                  `json:"minYears"`
	Education resume.EducationLevel `json:"education"`
}

type Job struct {
	ID           string       `json:"id"`
	CompanyID    string       `json:"companyId"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Category     string       `json:"category"`
	Location     string       `json:"location"`
	Requirements Requirements `json:"requirements"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// ScoringInput is the view the qualification scorer reads.
func (j Job) ScoringInput() qualification.Job {
	return qualification.Job{
		Title:       j.Title,
		Description: j.Description,
		Category:    j.Category,
		MinYears:    j.Requirements.MinYears,
		Education:   j.Requirements.Education,
	}
}

// InterviewContext is the view interview scoring and question generation read.
func (j Job) InterviewContext() evaluation.JobContext {
	return evaluation.JobContext{
		Title:       j.Title,
		Category:    j.Category,
		Description: j.Description,
		Location:    j.Location,
	}
}
