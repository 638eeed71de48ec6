package llm

import (
	_ "embed"
	"strings"
	"text/template"
)

var (
	//go:embed prompts/score_answer.txt
	scoreAnswerText string
	//go:embed prompts/questions.txt
	questionsText string

	scoreAnswerPrompt = template.Must(template.New("score_answer").Parse(scoreAnswerText))
	questionsPrompt   = template.Must(template.New("questions").Parse(questionsText))
)

type scoreAnswerData struct {
	Title       string
	Category    string
	Description string
	Question    string
	Answer      string
}

type questionsData struct {
	Title       string
	Category    string
	Location    string
	Description string
	Count       int
}

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
