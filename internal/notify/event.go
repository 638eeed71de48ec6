// Package notify delivers the single notification bundle (at most one email
// and one webhook event) that follows each application status change.
// Delivery is fire-and-forget: failures are logged and counted, never
// returned to the caller.
package notify

import (
	"time"

	"github.com/google/uuid"
)

// Kind says which step of the pipeline produced a change.
type Kind string

const (
	KindSubmitted          Kind = "submitted"
	KindScheduled          Kind = "scheduled"
	KindStarted            Kind = "started"
	KindInterviewCompleted Kind = "interview_completed"
	KindOverride           Kind = "override"
)

// Change describes one application status change.
type Change struct {
	Kind           Kind
	ApplicationID  string
	JobID          string
	JobTitle       string
	CandidateID    string
	InterviewID    string
	From           string
	To             string
	Score          *float64
	InterviewScore *int
	Reason         string
	Actor          string
	At             time.Time
}

type EventType string

const (
	EventApplicationSubmitted EventType = "APPLICATION_SUBMITTED"
	EventInterviewScheduled   EventType = "INTERVIEW_SCHEDULED"
	EventInterviewCompleted   EventType = "INTERVIEW_COMPLETED"
	EventStatusChange         EventType = "STATUS_CHANGE"
)

// Event is the webhook payload.
type Event struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	ApplicationID  string    `json:"applicationId"`
	JobID          string    `json:"jobId,omitempty"`
	JobTitle       string    `json:"jobTitle,omitempty"`
	CandidateID    string    `json:"candidateId,omitempty"`
	InterviewID    string    `json:"interviewId,omitempty"`
	FromStatus     string    `json:"fromStatus,omitempty"`
	ToStatus       string    `json:"toStatus"`
	Score          *float64  `json:"score,omitempty"`
	InterviewScore *int      `json:"interviewScore,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	Actor          string    `json:"actor,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// EventFor builds the webhook event for a change.
func EventFor(c Change) Event {
	at := c.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return Event{
		ID:             uuid.NewString(),
		Type:           eventType(c.Kind),
		ApplicationID:  c.ApplicationID,
		JobID:          c.JobID,
		JobTitle:       c.JobTitle,
		CandidateID:    c.CandidateID,
		InterviewID:    c.InterviewID,
		FromStatus:     c.From,
		ToStatus:       c.To,
		Score:          c.Score,
		InterviewScore: c.InterviewScore,
		Reason:         c.Reason,
		Actor:          c.Actor,
		OccurredAt:     at,
	}
}

func eventType(k Kind) EventType {
	switch k {
	case KindSubmitted:
		return EventApplicationSubmitted
	case KindScheduled:
		return EventInterviewScheduled
	case KindInterviewCompleted:
		return EventInterviewCompleted
	default:
		return EventStatusChange
	}
}
