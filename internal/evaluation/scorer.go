package evaluation

import (
	"context"
	"time"

	"hiremate-backend/internal/shared/metrics"
	"hiremate-backend/internal/shared/telemetry"
)

// AIScorer rates an answer with an external model.
type AIScorer interface {
	ScoreAnswer(ctx context.Context, question, answer string, job JobContext) (Breakdown, error)
}

// Source records which path produced a breakdown.
type Source string

const (
	SourceAI        Source = "ai"
	SourceHeuristic Source = "heuristic"
)

// Scorer prefers AI when configured and falls back to Heuristic on any
// failure. It never returns an error.
type Scorer struct {
	AI      AIScorer
	Timeout time.Duration
}

func (s Scorer) ScoreAnswer(ctx context.Context, question, answer string, job JobContext) (Breakdown, Source) {
	if s.AI == nil {
		return Heuristic(question, answer, job), SourceHeuristic
	}

	callCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	b, err := s.AI.ScoreAnswer(callCtx, question, answer, job)
	if err == nil && b.Valid() {
		if b.Feedback == "" {
			b.Feedback = heuristicFeedback
		}
		return b, SourceAI
	}

	fields := map[string]any{"job_title": job.Title}
	if err != nil {
		fields["error"] = err
	} else {
		fields["reason"] = "score out of range"
	}
	telemetry.Warn("ai scoring failed, using heuristic", fields)
	metrics.IncAIScoringFallback()
	return Heuristic(question, answer, job), SourceHeuristic
}
