package applications

import (
	"fmt"
	"strings"
	"time"

	"hiremate-backend/internal/qualification"
	"hiremate-backend/internal/resume"
)

type Status string

const (
	StatusNew                    Status = "NEW_APPLICATION"
	StatusRejected               Status = "REJECTED"
	StatusPendingReview          Status = "PENDING_REVIEW"
	StatusQualified              Status = "QUALIFIED_FOR_INTERVIEW"
	StatusInterviewScheduled     Status = "AI_INTERVIEW_SCHEDULED"
	StatusInProgress             Status = "IN_PROGRESS"
	StatusReadyForHumanInterview Status = "READY_FOR_HUMAN_INTERVIEW"
)

var allStatuses = []Status{
	StatusNew,
	StatusRejected,
	StatusPendingReview,
	StatusQualified,
	StatusInterviewScheduled,
	StatusInProgress,
	StatusReadyForHumanInterview,
}

// automated lists the transitions the pipeline may make on its own. Manual
// overrides bypass this table.
var automated = map[Status][]Status{
	StatusNew:                {StatusRejected, StatusPendingReview, StatusQualified},
	StatusQualified:          {StatusInterviewScheduled},
	StatusInterviewScheduled: {StatusInProgress, StatusReadyForHumanInterview, StatusPendingReview, StatusRejected},
	StatusInProgress:         {StatusReadyForHumanInterview, StatusPendingReview, StatusRejected},
}

// ActiveStatuses are the statuses the reconciler still has work for.
var ActiveStatuses = []Status{StatusQualified, StatusInterviewScheduled, StatusInProgress}

func (s Status) Valid() bool {
	for _, v := range allStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// AwaitingInterview reports whether an interview result is the next input.
func (s Status) AwaitingInterview() bool {
	return s == StatusInterviewScheduled || s == StatusInProgress
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, raw)
	}
	return s, nil
}

// CanTransition reports whether the pipeline may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range automated[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanOverride reports whether a manual override to the status is allowed.
func CanOverride(to Status) bool {
	return to.Valid() && to != StatusNew
}

type ScreeningType string

const (
	ScreeningCV         ScreeningType = "CV_SCREENING"
	ScreeningInterview  ScreeningType = "AI_INTERVIEW"
	ScreeningScheduling ScreeningType = "SCHEDULING"
	ScreeningAutomation ScreeningType = "AUTOMATION"
	ScreeningManual     ScreeningType = "MANUAL_UPDATE"
)

type Application struct {
	ID                 string                   `json:"id"`
	JobID              string                   `json:"jobId"`
	CandidateID        string                   `json:"candidateId"`
	CoverLetter        string                   `json:"coverLetter,omitempty"`
	Status             Status                   `json:"status"`
	QualificationScore *float64                 `json:"qualificationScore"`
	InterviewScore     *float64                 `json:"interviewScore"`
	FinalScore         *float64                 `json:"finalScore"`
	Decision           string                   `json:"decision,omitempty"`
	Breakdown          *qualification.Breakdown `json:"breakdown,omitempty"`
	Resume             resume.Parsed            `json:"resume"`
	CreatedAt          time.Time                `json:"createdAt"`
	UpdatedAt          time.Time                `json:"updatedAt"`
}

// LogEntry is an append-only record of one screening step or status change.
type LogEntry struct {
	ID            string        `json:"id"`
	ApplicationID string        `json:"applicationId"`
	ScreeningType ScreeningType `json:"screeningType"`
	FromStatus    Status        `json:"fromStatus"`
	ToStatus      Status        `json:"toStatus"`
	Score         *float64      `json:"score,omitempty"`
	Decision      string        `json:"decision,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Actor         string        `json:"actor"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// Pipeline counts applications per status for one job.
type Pipeline struct {
	JobID  string         `json:"jobId"`
	Counts map[Status]int `json:"counts"`
	Total  int            `json:"total"`
}

func floatPtr(v float64) *float64 { return &v }
