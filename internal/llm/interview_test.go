package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiremate-backend/internal/evaluation"
)

type scriptedClient struct {
	reply  string
	err    error
	prompt string
}

func (s *scriptedClient) Complete(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.reply, s.err
}

var job = evaluation.JobContext{Title: "Data Engineer", Category: "Data", Description: "Spark and SQL pipelines"}

func TestScoreAnswerParsesFencedJSON(t *testing.T) {
	client := &scriptedClient{reply: "```json\n{\"relevance\": 80.4, \"technicalAccuracy\": 70, \"communication\": 90, \"problemSolving\": 65.5, \"feedback\": \" solid \"}\n```"}
	got, err := InterviewAI{Client: client}.ScoreAnswer(context.Background(), "Why Spark?", "Because of scale.", job)
	require.NoError(t, err)
	assert.Equal(t, evaluation.Breakdown{Relevance: 80, TechnicalAccuracy: 70, Communication: 90, ProblemSolving: 66, Feedback: "solid"}, got)
	assert.Contains(t, client.prompt, "Why Spark?")
	assert.Contains(t, client.prompt, "Because of scale.")
	assert.Contains(t, client.prompt, "Data Engineer")
}

func TestScoreAnswerRejectsUnusableOutput(t *testing.T) {
	for _, reply := range []string{
		"I think the answer was good.",
		`{"relevance": 80, "technicalAccuracy": 70, "communication": 90}`,
		`{"relevance": 180, "technicalAccuracy": 70, "communication": 90, "problemSolving": 10}`,
		`{"relevance": "high"}`,
	} {
		_, err := InterviewAI{Client: &scriptedClient{reply: reply}}.ScoreAnswer(context.Background(), "q", "a", job)
		assert.ErrorIs(t, err, ErrUnusableResponse, reply)
	}

	boom := errors.New("timeout")
	_, err := InterviewAI{Client: &scriptedClient{err: boom}}.ScoreAnswer(context.Background(), "q", "a", job)
	assert.ErrorIs(t, err, boom)
}

func TestGenerateQuestions(t *testing.T) {
	client := &scriptedClient{reply: `Here you go: {"questions": ["Q1?", "Q2?"]}`}
	got, err := InterviewAI{Client: client}.GenerateQuestions(context.Background(), job, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Q1?", "Q2?"}, got)
	assert.Contains(t, client.prompt, "Write 2 distinct interview questions")

	_, err = InterviewAI{Client: &scriptedClient{reply: `{"questions": []}`}}.GenerateQuestions(context.Background(), job, 2)
	assert.ErrorIs(t, err, ErrUnusableResponse)
}

func TestScorerFallsBackWhenModelMisbehaves(t *testing.T) {
	scorer := evaluation.Scorer{AI: InterviewAI{Client: &scriptedClient{reply: "no json"}}}
	_, src := scorer.ScoreAnswer(context.Background(), "q", "I solved it.", job)
	assert.Equal(t, evaluation.SourceHeuristic, src)
}

func TestTruncateKeepsRunes(t *testing.T) {
	s := strings.Repeat("é", 10)
	assert.Equal(t, strings.Repeat("é", 4), truncate(s, 4))
	assert.Equal(t, "abc", truncate("abc", 4))
}
