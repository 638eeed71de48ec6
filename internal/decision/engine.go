// Package decision combines screening and interview scores into the final
// score and the status an application moves to after its AI interview.
package decision

import "math"

// Status values the engine can produce.
const (
	StatusReadyForHumanInterview = "READY_FOR_HUMAN_INTERVIEW"
	StatusPendingReview          = "PENDING_REVIEW"
	StatusRejected               = "REJECTED"
)

const reviewFloor = 50

// Engine holds the weights and the human-interview threshold. The same
// threshold drives post-interview routing, reconciliation promotion and the
// top-candidates query.
type Engine struct {
	CVWeight        float64
	InterviewWeight float64
	Threshold       float64
}

// Default returns the production weights.
func Default() Engine {
	return Engine{CVWeight: 0.4, InterviewWeight: 0.6, Threshold: 65}
}

// FinalScore is cv*CVWeight + interview*InterviewWeight, rounded to two
// decimals. A non-finite input counts as 0.
func (e Engine) FinalScore(cv, interview float64) float64 {
	v := finite(cv)*e.CVWeight + finite(interview)*e.InterviewWeight
	return math.Round(finite(v)*100) / 100
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// NextStatus routes a final score.
func (e Engine) NextStatus(final float64) string {
	switch {
	case final >= e.Threshold:
		return StatusReadyForHumanInterview
	case final >= reviewFloor:
		return StatusPendingReview
	default:
		return StatusRejected
	}
}

// Promotable reports whether a final score clears the threshold.
func (e Engine) Promotable(final float64) bool {
	return final >= e.Threshold
}
