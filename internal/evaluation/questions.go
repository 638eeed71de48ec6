package evaluation

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"hiremate-backend/internal/shared/telemetry"
)

// DefaultQuestionCount is used when a caller asks for zero questions.
const DefaultQuestionCount = 6

var questionBank = []string{
	"Walk me through a recent {{CATEGORY}} project you led. What was your role and what was the measurable impact?",
	"Describe how you would approach {{PROBLEM}} in your first 90 days.",
	"Tell me about a difficult technical challenge you solved. How did you break the problem down?",
	"How do you decide between shipping quickly and designing for scale in {{CATEGORY}} work?",
	"Describe a time you optimized a slow system or process. What numbers changed?",
	"How do you keep your {{CATEGORY}} skills current, and what have you learned in the last year?",
	"Tell me about a disagreement with a teammate on a design decision and how it was resolved.",
	"If you joined us tomorrow, how would you evaluate and improve {{PROBLEM}}?",
}

// QuestionSource produces interview prompts with an external model.
type QuestionSource interface {
	GenerateQuestions(ctx context.Context, job JobContext, count int) ([]string, error)
}

// QuestionGenerator asks AI for prompts and tops up from the built-in bank.
type QuestionGenerator struct {
	AI      QuestionSource
	Timeout time.Duration
	// Shuffle defaults to math/rand/v2; tests pin it.
	Shuffle func(n int, swap func(i, j int))
}

// Generate always returns exactly count prompts (DefaultQuestionCount if count <= 0).
func (g QuestionGenerator) Generate(ctx context.Context, job JobContext, count int) []string {
	if count <= 0 {
		count = DefaultQuestionCount
	}

	var out []string
	if g.AI != nil {
		out = g.fromAI(ctx, job, count)
	}
	if len(out) < count {
		out = append(out, g.fromBank(job, count-len(out))...)
	}
	return out
}

func (g QuestionGenerator) fromAI(ctx context.Context, job JobContext, count int) []string {
	callCtx := ctx
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}
	raw, err := g.AI.GenerateQuestions(callCtx, job, count)
	if err != nil {
		telemetry.Warn("ai question generation failed, using bank", map[string]any{
			"job_title": job.Title,
			"error":     err,
		})
		return nil
	}
	out := make([]string, 0, count)
	for _, q := range raw {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		out = append(out, q)
		if len(out) == count {
			break
		}
	}
	return out
}

func (g QuestionGenerator) fromBank(job JobContext, count int) []string {
	order := make([]int, len(questionBank))
	for i := range order {
		order[i] = i
	}
	shuffle := g.Shuffle
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	r := strings.NewReplacer("{{CATEGORY}}", categoryOf(job), "{{PROBLEM}}", problemOf(job))
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, r.Replace(questionBank[order[i%len(order)]]))
	}
	return out
}

func categoryOf(job JobContext) string {
	if c := strings.TrimSpace(job.Category); c != "" {
		return strings.ToLower(c)
	}
	return "technology"
}

func problemOf(job JobContext) string {
	if t := strings.TrimSpace(job.Title); t != "" {
		return "the core challenges of the " + t + " role"
	}
	return "the core challenges of this role"
}
