package resume

import (
	"regexp"
	"strings"

	"hiremate-backend/internal/skills"
)

const previewLen = 500

var educationPatterns = []struct {
	level EducationLevel
	re    *regexp.Regexp
}{
	{PhD, regexp.MustCompile(`(?i)\b(?:ph\.?d|doctorate|doctor of philosophy)\b`)},
	{Master, regexp.MustCompile(`(?i)\b(?:masters?|master's|msc|m\.sc|mtech|m\.tech|mba)\b|\bm\.s\.`)},
	{Bachelor, regexp.MustCompile(`(?i)\b(?:bachelors?|bachelor's|bsc|b\.sc|btech|b\.tech|undergraduate degree)\b|\bb\.e\.`)},
	{Associate, regexp.MustCompile(`(?i)\b(?:associate'?s? degree|diploma)\b`)},
	{HighSchool, regexp.MustCompile(`(?i)\b(?:high school|secondary school|12th grade|ged)\b`)},
}

var (
	certKeywords = []string{"certified", "certification", "certificate"}
	sentenceCut  = regexp.MustCompile(`[\n.]`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// Parse derives the scoring fields from plain résumé text.
func Parse(text string) Parsed {
	flat := strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
	out := Parsed{
		Skills:          DetectSkills(flat),
		ExperienceYears: skills.MaxYears(flat),
		Education:       DetectEducation(flat),
		Certifications:  DetectCertifications(text),
	}
	out.TextPreview = flat
	if r := []rune(flat); len(r) > previewLen {
		out.TextPreview = string(r[:previewLen])
	}
	return out
}

// DetectSkills finds dictionary skills in text and returns them normalized.
func DetectSkills(text string) []string {
	tokens := skills.Tokenize(text)
	found := make([]string, 0, 8)
	for i, tok := range tokens {
		if skills.IsKnown(tok) {
			found = append(found, tok)
		}
		if i+1 < len(tokens) {
			pair := tok + " " + tokens[i+1]
			if skills.IsKnown(pair) {
				found = append(found, pair)
			}
		}
		if i+2 < len(tokens) {
			triple := tok + " " + tokens[i+1] + " " + tokens[i+2]
			if skills.IsKnown(triple) {
				found = append(found, triple)
			}
		}
	}
	return skills.NormalizeAll(found)
}

// DetectEducation returns the highest degree mentioned in a résumé.
func DetectEducation(text string) EducationLevel {
	for _, p := range educationPatterns {
		if p.re.MatchString(text) {
			return p.level
		}
	}
	return EducationUnknown
}

// RequiredEducation returns the lowest degree a job posting mentions, which is
// read as the minimum it accepts.
func RequiredEducation(text string) EducationLevel {
	for i := len(educationPatterns) - 1; i >= 0; i-- {
		if educationPatterns[i].re.MatchString(text) {
			return educationPatterns[i].level
		}
	}
	return EducationUnknown
}

// DetectCertifications returns up to MaxCertifications sentences mentioning a certification.
func DetectCertifications(text string) []string {
	lower := strings.ToLower(text)
	if !containsAny(lower, certKeywords) {
		return nil
	}
	var out []string
	for _, sentence := range sentenceCut.Split(text, -1) {
		s := strings.TrimSpace(sentence)
		if s == "" || !containsAny(strings.ToLower(s), certKeywords) {
			continue
		}
		out = append(out, s)
		if len(out) == MaxCertifications {
			break
		}
	}
	return out
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
