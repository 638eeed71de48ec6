package skills

import (
	"regexp"
	"strconv"
	"strings"
)

// minKeywordLen drops short tokens ("js", "ai") from job text; they are too
// ambiguous in free prose to count as a stated requirement.
const minKeywordLen = 3

var yearsPattern = regexp.MustCompile(`(?i)(\d+)\s*\+?\s*(?:years|yrs)`)

// JobKeywords extracts the set of canonical skills a job posting asks for.
// Tokens from title, description and category are normalized through the
// synonym table and kept only if recognized. Multi-word aliases such as
// "amazon web services" are matched on consecutive tokens.
func JobKeywords(title, description, category string) []string {
	tokens := Tokenize(title + " " + description + " " + category)
	out := make([]string, 0, 8)
	seen := make(map[string]struct{})
	add := func(s string) {
		if !IsKnown(s) {
			return
		}
		s = Normalize(s)
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for i, tok := range tokens {
		for n := maxPhraseWords; n >= 2; n-- {
			if i+n > len(tokens) {
				continue
			}
			phrase := strings.Join(tokens[i:i+n], " ")
			if _, ok := aliasToCanonical[phrase]; ok {
				add(phrase)
			}
		}
		if len(tok) >= minKeywordLen {
			add(tok)
		}
	}
	return out
}

// MaxYears returns the largest "N years"/"N yrs" figure in text, or nil.
func MaxYears(text string) *int {
	var max *int
	for _, m := range yearsPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if max == nil || n > *max {
			v := n
			max = &v
		}
	}
	return max
}

// FirstYears returns the first "N years" figure in text, or nil.
func FirstYears(text string) *int {
	m := yearsPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}
