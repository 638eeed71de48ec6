package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"hiremate-backend/internal/evaluation"
)

// maxPromptAnswer bounds the answer text sent to the model.
const maxPromptAnswer = 6000

// InterviewAI adapts a Client to interview question generation and answer
// scoring.
type InterviewAI struct {
	Client Client
}

var (
	_ evaluation.AIScorer       = InterviewAI{}
	_ evaluation.QuestionSource = InterviewAI{}
)

type scoreResponse struct {
	Relevance         *float64 `json:"relevance"`
	TechnicalAccuracy *float64 `json:"technicalAccuracy"`
	Communication     *float64 `json:"communication"`
	ProblemSolving    *float64 `json:"problemSolving"`
	Feedback          string   `json:"feedback"`
}

func (a InterviewAI) ScoreAnswer(ctx context.Context, question, answer string, job evaluation.JobContext) (evaluation.Breakdown, error) {
	prompt, err := render(scoreAnswerPrompt, scoreAnswerData{
		Title:       job.Title,
		Category:    job.Category,
		Description: job.Description,
		Question:    question,
		Answer:      truncate(answer, maxPromptAnswer),
	})
	if err != nil {
		return evaluation.Breakdown{}, err
	}
	raw, err := a.Client.Complete(ctx, prompt)
	if err != nil {
		return evaluation.Breakdown{}, err
	}

	var resp scoreResponse
	if err := decodeObject(raw, &resp); err != nil {
		return evaluation.Breakdown{}, err
	}
	dims := []*float64{resp.Relevance, resp.TechnicalAccuracy, resp.Communication, resp.ProblemSolving}
	vals := make([]int, len(dims))
	for i, d := range dims {
		if d == nil || math.IsNaN(*d) || *d < 0 || *d > 100 {
			return evaluation.Breakdown{}, fmt.Errorf("%w: score dimension missing or out of range", ErrUnusableResponse)
		}
		vals[i] = int(math.Round(*d))
	}
	return evaluation.Breakdown{
		Relevance:         vals[0],
		TechnicalAccuracy: vals[1],
		Communication:     vals[2],
		ProblemSolving:    vals[3],
		Feedback:          strings.TrimSpace(resp.Feedback),
	}, nil
}

func (a InterviewAI) GenerateQuestions(ctx context.Context, job evaluation.JobContext, count int) ([]string, error) {
	prompt, err := render(questionsPrompt, questionsData{
		Title:       job.Title,
		Category:    job.Category,
		Location:    job.Location,
		Description: job.Description,
		Count:       count,
	})
	if err != nil {
		return nil, err
	}
	raw, err := a.Client.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Questions []string `json:"questions"`
	}
	if err := decodeObject(raw, &resp); err != nil {
		return nil, err
	}
	if len(resp.Questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrUnusableResponse)
	}
	return resp.Questions, nil
}

// decodeObject unmarshals the first JSON object in raw, tolerating code
// fences and surrounding prose.
func decodeObject(raw string, v any) error {
	s := strings.TrimSpace(raw)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("%w: no json object", ErrUnusableResponse)
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), v); err != nil {
		return fmt.Errorf("%w: %v", ErrUnusableResponse, err)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
