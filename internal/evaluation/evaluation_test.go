package evaluation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var backendJob = JobContext{
	Title:       "Backend Engineer",
	Category:    "Engineering",
	Description: "Build Go services on Postgres and Kafka.",
}

func TestHeuristicRewardsDetailedAnswers(t *testing.T) {
	answer := strings.Repeat("I designed Go services on Postgres to solve latency problems with a careful approach. ", 10) +
		"We cut p99 from 900 ms to 120 ms and handled 3x traffic, a 40% cost drop."

	got := Heuristic("Tell me about scaling", answer, backendJob)

	assert.Equal(t, 100, got.Communication)
	assert.Equal(t, 100, got.TechnicalAccuracy)
	assert.Equal(t, 60, got.ProblemSolving)
	assert.Greater(t, got.Relevance, 0)
	assert.True(t, got.Valid())
}

func TestHeuristicShortAnswer(t *testing.T) {
	got := Heuristic("q", "No idea.", backendJob)
	assert.Equal(t, 20, got.Communication)
	assert.Equal(t, 0, got.TechnicalAccuracy)
	assert.Equal(t, 0, got.ProblemSolving)
	assert.Equal(t, 0, got.Relevance)
}

func TestHeuristicBlankAnswerScoresZero(t *testing.T) {
	got := Heuristic("q", "   ", backendJob)
	assert.Zero(t, got.Score())
}

func TestCommunicationBands(t *testing.T) {
	cases := map[int]int{0: 20, 14: 20, 15: 40, 30: 55, 50: 70, 80: 85, 119: 85, 120: 100}
	for words, want := range cases {
		answer := strings.TrimSpace(strings.Repeat("word ", words))
		assert.Equal(t, want, communication(answer), "%d words", words)
	}
}

func TestRelevanceSamplesAtMost25JobTokens(t *testing.T) {
	words := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		words = append(words, "term"+string(rune('a'+i%26))+string(rune('a'+i/26)))
	}
	got := jobTokens(JobContext{Description: strings.Join(words, " ")})
	assert.Len(t, got, 25)
}

func TestAggregate(t *testing.T) {
	assert.Equal(t, 0, Aggregate(nil))

	single := Breakdown{Relevance: 80, TechnicalAccuracy: 60, Communication: 70, ProblemSolving: 50}
	assert.Equal(t, 65, Aggregate([]Breakdown{single}))

	other := Breakdown{Relevance: 100, TechnicalAccuracy: 100, Communication: 100, ProblemSolving: 100}
	assert.Equal(t, 83, Aggregate([]Breakdown{single, other}))
}

func TestOutcomeFor(t *testing.T) {
	assert.Equal(t, OutcomePassed, OutcomeFor(70))
	assert.Equal(t, OutcomePassed, OutcomeFor(100))
	assert.Equal(t, OutcomeBorderline, OutcomeFor(69))
	assert.Equal(t, OutcomeBorderline, OutcomeFor(50))
	assert.Equal(t, OutcomeFailed, OutcomeFor(49))
	assert.Equal(t, OutcomeFailed, OutcomeFor(0))
}

type stubAI struct {
	breakdown Breakdown
	err       error
	questions []string
}

func (s stubAI) ScoreAnswer(context.Context, string, string, JobContext) (Breakdown, error) {
	return s.breakdown, s.err
}

func (s stubAI) GenerateQuestions(context.Context, JobContext, int) ([]string, error) {
	return s.questions, s.err
}

func TestScorerPrefersAI(t *testing.T) {
	ai := stubAI{breakdown: Breakdown{Relevance: 90, TechnicalAccuracy: 90, Communication: 90, ProblemSolving: 90, Feedback: "great"}}
	got, src := Scorer{AI: ai}.ScoreAnswer(context.Background(), "q", "a", backendJob)
	assert.Equal(t, SourceAI, src)
	assert.Equal(t, 90, got.Score())
	assert.Equal(t, "great", got.Feedback)
}

func TestScorerFallsBackOnErrorOrBadRange(t *testing.T) {
	answer := "I would approach it by profiling first."
	want := Heuristic("q", answer, backendJob)

	got, src := Scorer{AI: stubAI{err: errors.New("boom")}}.ScoreAnswer(context.Background(), "q", answer, backendJob)
	assert.Equal(t, SourceHeuristic, src)
	assert.Equal(t, want, got)

	got, src = Scorer{AI: stubAI{breakdown: Breakdown{Relevance: 140}}}.ScoreAnswer(context.Background(), "q", answer, backendJob)
	assert.Equal(t, SourceHeuristic, src)
	assert.Equal(t, want, got)

	got, src = Scorer{}.ScoreAnswer(context.Background(), "q", answer, backendJob)
	assert.Equal(t, SourceHeuristic, src)
	assert.Equal(t, want, got)
}

func noShuffle(int, func(i, j int)) {}

func TestGenerateFallsBackToBank(t *testing.T) {
	g := QuestionGenerator{AI: stubAI{err: errors.New("down")}, Shuffle: noShuffle}

	got := g.Generate(context.Background(), backendJob, 0)

	require.Len(t, got, DefaultQuestionCount)
	assert.Contains(t, got[0], "engineering project")
	assert.Contains(t, got[1], "Backend Engineer")
	for _, q := range got {
		assert.NotContains(t, q, "{{")
	}
}

func TestGenerateTopsUpShortAIAnswer(t *testing.T) {
	g := QuestionGenerator{AI: stubAI{questions: []string{"AI one?", " ", "AI two?"}}, Shuffle: noShuffle}

	got := g.Generate(context.Background(), backendJob, 4)

	require.Len(t, got, 4)
	assert.Equal(t, []string{"AI one?", "AI two?"}, got[:2])
}

func TestGenerateCyclesBankForLargeCounts(t *testing.T) {
	got := QuestionGenerator{Shuffle: noShuffle}.Generate(context.Background(), JobContext{}, 10)
	require.Len(t, got, 10)
	assert.Equal(t, got[0], got[8])
	assert.Contains(t, got[0], "technology")
}
