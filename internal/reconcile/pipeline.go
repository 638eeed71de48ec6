// Package reconcile advances applications the request path did not finish:
// it schedules interviews for qualified candidates and promotes completed
// interviews that cleared the threshold.
package reconcile

import "context"

// Status values the loop acts on.
const (
	StatusQualified    = "QUALIFIED_FOR_INTERVIEW"
	StatusScheduled    = "AI_INTERVIEW_SCHEDULED"
	StatusInProgress   = "IN_PROGRESS"
	StatusReady        = "READY_FOR_HUMAN_INTERVIEW"
	InterviewCompleted = "COMPLETED"
	promotionNote      = "Auto-promoted by reconciliation loop"
)

type Job struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Application struct {
	ID                 string   `json:"id"`
	JobID              string   `json:"jobId"`
	Status             string   `json:"status"`
	QualificationScore *float64 `json:"qualificationScore"`
	FinalScore         *float64 `json:"finalScore"`
}

type Interview struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Score  *int   `json:"score"`
}

// Pipeline is everything the loop needs from the rest of the system.
type Pipeline interface {
	ListJobs(ctx context.Context) ([]Job, error)
	ListActive(ctx context.Context, jobID string) ([]Application, error)
	// ScheduleInterview is idempotent; created is false when an interview
	// already existed.
	ScheduleInterview(ctx context.Context, applicationID string) (created bool, err error)
	// InterviewFor returns found=false when the application has none.
	InterviewFor(ctx context.Context, applicationID string) (iv Interview, found bool, err error)
	// Promote is idempotent; changed is false when already promoted.
	Promote(ctx context.Context, applicationID string, finalScore float64, note string) (changed bool, err error)
}
