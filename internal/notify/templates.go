package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

type emailKind int

const (
	emailNone emailKind = iota
	emailReceived
	emailInvitation
	emailResult
	emailSelection
	emailRejection
)

// emailFor picks the one email a change warrants, if any.
func emailFor(c Change) emailKind {
	switch c.Kind {
	case KindSubmitted:
		return emailReceived
	case KindScheduled:
		return emailInvitation
	case KindInterviewCompleted:
		switch c.To {
		case "READY_FOR_HUMAN_INTERVIEW":
			return emailSelection
		case "REJECTED":
			return emailRejection
		default:
			return emailResult
		}
	case KindOverride:
		switch c.To {
		case "READY_FOR_HUMAN_INTERVIEW":
			return emailSelection
		case "REJECTED":
			return emailRejection
		}
	}
	return emailNone
}

type emailView struct {
	Name       string
	JobTitle   string
	Heading    string
	Paragraphs []string
	CTALabel   string
	CTAURL     string
}

var layout = template.Must(template.New("email").Parse(`<!doctype html>
<html><body style="font-family:Arial,sans-serif;color:#1f2937;max-width:560px;margin:auto">
<h2>{{.Heading}}</h2>
<p>Hi {{.Name}},</p>
{{range .Paragraphs}}<p>{{.}}</p>
{{end}}{{if .CTAURL}}<p><a href="{{.CTAURL}}" style="background:#2563eb;color:#fff;padding:10px 18px;border-radius:6px;text-decoration:none">{{.CTALabel}}</a></p>
{{end}}<p style="color:#6b7280;font-size:12px">HireMate automated screening</p>
</body></html>`))

// composeEmail renders the email for a change. ok is false when the change
// sends no email.
func composeEmail(c Change, to, name, frontendURL string) (Email, bool) {
	kind := emailFor(c)
	if kind == emailNone || strings.TrimSpace(to) == "" {
		return Email{}, false
	}
	base := strings.TrimRight(frontendURL, "/")
	job := c.JobTitle
	if job == "" {
		job = "the role"
	}
	if name == "" {
		name = "there"
	}

	v := emailView{Name: name, JobTitle: job, CTALabel: "View my applications", CTAURL: base + "/my-applications"}
	var subject string
	switch kind {
	case emailReceived:
		subject = "Application received: " + job
		v.Heading = "We received your application"
		v.Paragraphs = []string{
			fmt.Sprintf("Thanks for applying to %s. Your résumé has been screened automatically.", job),
			fmt.Sprintf("Current status: %s%s.", humanStatus(c.To), scoreSuffix(c.Score)),
		}
		if c.To == "QUALIFIED_FOR_INTERVIEW" {
			v.Paragraphs = append(v.Paragraphs, "You qualify for an AI interview. We will send you an invitation shortly.")
		}
	case emailInvitation:
		subject = "Your AI interview for " + job
		v.Heading = "You're invited to an AI interview"
		v.Paragraphs = []string{
			fmt.Sprintf("Your application for %s passed our initial screening.", job),
			"The interview is a short set of written questions you can complete at your own pace.",
		}
		v.CTALabel = "Start interview"
		v.CTAURL = base + "/ai-interview/" + c.InterviewID
	case emailResult:
		subject = "Your AI interview results for " + job
		v.Heading = "Interview completed"
		v.Paragraphs = []string{
			fmt.Sprintf("Thanks for completing the AI interview for %s%s.", job, interviewSuffix(c.InterviewScore)),
			"Our hiring team will review your results and get back to you.",
		}
	case emailSelection:
		subject = "Next step for " + job + ": interview with our team"
		v.Heading = "Congratulations!"
		v.Paragraphs = []string{
			fmt.Sprintf("You have been selected for an interview with the hiring team for %s%s.", job, scoreSuffix(c.Score)),
			"A recruiter will contact you to arrange a time.",
		}
	case emailRejection:
		subject = "Update on your application for " + job
		v.Heading = "Thank you for your interest"
		v.Paragraphs = []string{
			fmt.Sprintf("After careful review we will not be moving forward with your application for %s.", job),
			"We encourage you to apply for other roles that match your experience.",
		}
	}

	var html bytes.Buffer
	if err := layout.Execute(&html, v); err != nil {
		return Email{}, false
	}
	text := "Hi " + name + ",\n\n" + strings.Join(v.Paragraphs, "\n\n")
	if v.CTAURL != "" {
		text += "\n\n" + v.CTALabel + ": " + v.CTAURL
	}
	return Email{To: to, Subject: subject, Text: text, HTML: html.String()}, true
}

func humanStatus(s string) string {
	switch s {
	case "QUALIFIED_FOR_INTERVIEW":
		return "qualified for AI interview"
	case "PENDING_REVIEW":
		return "under review"
	case "REJECTED":
		return "not selected"
	}
	return strings.ToLower(strings.ReplaceAll(s, "_", " "))
}

func scoreSuffix(score *float64) string {
	if score == nil {
		return ""
	}
	return fmt.Sprintf(" (score %.0f/100)", *score)
}

func interviewSuffix(score *int) string {
	if score == nil {
		return ""
	}
	return fmt.Sprintf(" (score %d/100)", *score)
}
