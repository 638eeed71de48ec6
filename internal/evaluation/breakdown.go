// Package evaluation scores AI-interview answers and rolls them up into an
// interview score and outcome.
package evaluation

import "math"

// Breakdown is a four-dimension answer score, each 0..100.
type Breakdown struct {
	Relevance         int    `json:"relevance"`
	TechnicalAccuracy int    `json:"technicalAccuracy"`
	Communication     int    `json:"communication"`
	ProblemSolving    int    `json:"problemSolving"`
	Feedback          string `json:"feedback,omitempty"`
}

// Mean is the unweighted mean of the four dimensions.
func (b Breakdown) Mean() float64 {
	return float64(b.Relevance+b.TechnicalAccuracy+b.Communication+b.ProblemSolving) / 4
}

// Score is Mean rounded to the nearest integer.
func (b Breakdown) Score() int {
	return int(math.Round(b.Mean()))
}

// Valid reports whether every dimension is within 0..100.
func (b Breakdown) Valid() bool {
	for _, v := range []int{b.Relevance, b.TechnicalAccuracy, b.Communication, b.ProblemSolving} {
		if v < 0 || v > 100 {
			return false
		}
	}
	return true
}

// Aggregate averages per-question means into one interview score. Callers pass
// only answered questions; no input scores 0.
func Aggregate(answered []Breakdown) int {
	if len(answered) == 0 {
		return 0
	}
	var sum float64
	for _, b := range answered {
		sum += b.Mean()
	}
	return int(math.Round(sum / float64(len(answered))))
}

// Outcome labels a completed interview. It is metadata; the application's
// next status comes from the decision engine.
type Outcome string

const (
	OutcomePassed     Outcome = "PASSED_AI_INTERVIEW"
	OutcomeBorderline Outcome = "BORDERLINE_REVIEW"
	OutcomeFailed     Outcome = "FAILED_AI_INTERVIEW"
)

// OutcomeFor maps an interview score to its outcome.
func OutcomeFor(score int) Outcome {
	switch {
	case score >= 70:
		return OutcomePassed
	case score >= 50:
		return OutcomeBorderline
	default:
		return OutcomeFailed
	}
}
