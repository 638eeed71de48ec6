package interviews

import (
	"time"

	"hiremate-backend/internal/evaluation"
)

type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Active reports whether the interview still accepts answers.
func (s Status) Active() bool {
	return s == StatusScheduled || s == StatusInProgress
}

type Question struct {
	ID          string                `json:"id"`
	InterviewID string                `json:"interviewId"`
	Order       int                   `json:"order"`
	Prompt      string                `json:"prompt"`
	Answer      string                `json:"answer,omitempty"`
	Breakdown   *evaluation.Breakdown `json:"breakdown,omitempty"`
	Score       *int                  `json:"score,omitempty"`
	Source      evaluation.Source     `json:"source,omitempty"`
	AnsweredAt  *time.Time            `json:"answeredAt,omitempty"`
}

func (q Question) Answered() bool { return q.AnsweredAt != nil }

type Interview struct {
	ID               string             `json:"id"`
	ApplicationID    string             `json:"applicationId"`
	JobID            string             `json:"jobId"`
	Status           Status             `json:"status"`
	AccessToken      string             `json:"accessToken,omitempty"`
	Score            *int               `json:"score"`
	Outcome          evaluation.Outcome `json:"outcome,omitempty"`
	JobTitle         string             `json:"jobTitle"`
	ExternalFeedback string             `json:"externalFeedback,omitempty"`
	Transcript       string             `json:"transcript,omitempty"`
	Questions        []Question         `json:"questions"`
	ScheduledAt      time.Time          `json:"scheduledAt"`
	StartedAt        *time.Time         `json:"startedAt,omitempty"`
	CompletedAt      *time.Time         `json:"completedAt,omitempty"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// Answered returns the breakdowns of answered questions in order.
func (iv Interview) Answered() []evaluation.Breakdown {
	out := make([]evaluation.Breakdown, 0, len(iv.Questions))
	for _, q := range iv.Questions {
		if q.Answered() && q.Breakdown != nil {
			out = append(out, *q.Breakdown)
		}
	}
	return out
}

func (iv Interview) question(id string) (int, bool) {
	for i, q := range iv.Questions {
		if q.ID == id {
			return i, true
		}
	}
	return -1, false
}
