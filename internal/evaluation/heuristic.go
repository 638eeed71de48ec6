package evaluation

import (
	"math"
	"regexp"
	"strings"

	"hiremate-backend/internal/skills"
)

const (
	maxRelevanceTokens = 25
	minRelevanceLen    = 3
	quantitativeTarget = 3

	heuristicFeedback = "Automated rubric applied: balanced weight across relevance, technical depth, clarity, and problem solving."
)

// JobContext is what answer scoring and question generation know about the role.
type JobContext struct {
	Title       string
	Category    string
	Description string
	Location    string
}

var (
	quantitative = regexp.MustCompile(`\b\d+(?:[.,]\d+)?\+?%?`)

	problemStems = []string{"solv", "approach", "challeng", "design", "optimi"}

	wordBands = []struct {
		min   int
		score int
	}{
		{120, 100},
		{80, 85},
		{50, 70},
		{30, 55},
		{15, 40},
	}
)

// Heuristic scores an answer without any external service.
func Heuristic(_, answer string, job JobContext) Breakdown {
	if strings.TrimSpace(answer) == "" {
		return Breakdown{Feedback: heuristicFeedback}
	}
	answerTokens := skills.Tokenize(answer)
	return Breakdown{
		Relevance:         relevance(answerTokens, jobTokens(job)),
		TechnicalAccuracy: technicalAccuracy(answer),
		Communication:     communication(answer),
		ProblemSolving:    problemSolving(answerTokens),
		Feedback:          heuristicFeedback,
	}
}

// jobTokens returns up to maxRelevanceTokens distinct tokens from the role text.
func jobTokens(job JobContext) []string {
	all := skills.Tokenize(job.Title + " " + job.Category + " " + job.Description)
	seen := make(map[string]struct{}, maxRelevanceTokens)
	out := make([]string, 0, maxRelevanceTokens)
	for _, tok := range all {
		if len(tok) < minRelevanceLen {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
		if len(out) == maxRelevanceTokens {
			break
		}
	}
	return out
}

func relevance(answerTokens, keywords []string) int {
	if len(keywords) == 0 || len(answerTokens) == 0 {
		return 0
	}
	have := make(map[string]struct{}, len(answerTokens))
	for _, t := range answerTokens {
		have[t] = struct{}{}
	}
	hits := 0
	for _, k := range keywords {
		if _, ok := have[k]; ok {
			hits++
		}
	}
	return pct(float64(hits) / float64(len(keywords)))
}

func technicalAccuracy(answer string) int {
	n := len(quantitative.FindAllString(answer, -1))
	return pct(math.Min(1, float64(n)/quantitativeTarget))
}

func communication(answer string) int {
	words := len(strings.Fields(answer))
	for _, b := range wordBands {
		if words >= b.min {
			return b.score
		}
	}
	return 20
}

func problemSolving(answerTokens []string) int {
	hits := 0
	for _, stem := range problemStems {
		for _, tok := range answerTokens {
			if strings.HasPrefix(tok, stem) {
				hits++
				break
			}
		}
	}
	return pct(float64(hits) / float64(len(problemStems)))
}

func pct(ratio float64) int {
	return int(math.Round(ratio * 100))
}
