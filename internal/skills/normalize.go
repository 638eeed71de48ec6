// Package skills holds the text primitives shared by résumé and interview
// scoring: diacritic folding, tokenizing, skill synonyms and the known-skill
// dictionary.
package skills

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// synonyms maps a canonical skill to the spellings that collapse onto it.
var synonyms = map[string][]string{
	"javascript": {"js", "node", "nodejs", "node.js", "ecmascript"},
	"react":      {"reactjs", "react.js", "react native"},
	"python":     {"py"},
	"sql":        {"mysql", "postgres", "postgresql"},
	"aws":        {"amazon web services"},
	"azure":      {"microsoft azure"},
	"gcp":        {"google cloud", "google cloud platform"},
	"css":        {"tailwind", "bootstrap"},
	"html":       {"html5"},
}

var dictionary = []string{
	"javascript", "typescript", "node", "node.js", "react", "react.js",
	"angular", "vue", "html", "css", "tailwind", "bootstrap",
	"sql", "mysql", "postgresql", "mongodb", "python", "django", "flask",
	"java", "spring", "c#", ".net", "aws", "azure", "gcp",
	"docker", "kubernetes", "git", "rest", "graphql", "api",
	"ai", "ml", "nlp",
}

var (
	aliasToCanonical = buildAliases()
	known            = buildKnown()
	maxPhraseWords   = longestPhrase()

	nonToken = regexp.MustCompile(`[^a-z0-9+#\s]+`)
)

func buildAliases() map[string]string {
	out := make(map[string]string)
	for canonical, aliases := range synonyms {
		out[canonical] = canonical
		for _, a := range aliases {
			out[a] = canonical
		}
	}
	return out
}

func buildKnown() map[string]struct{} {
	out := make(map[string]struct{})
	for canonical, aliases := range synonyms {
		out[canonical] = struct{}{}
		for _, a := range aliases {
			out[a] = struct{}{}
		}
	}
	for _, s := range dictionary {
		out[s] = struct{}{}
	}
	return out
}

func longestPhrase() int {
	max := 1
	for alias := range aliasToCanonical {
		if n := len(strings.Fields(alias)); n > max {
			max = n
		}
	}
	return max
}

// Normalize lowercases a skill and collapses known synonyms onto their
// canonical name. Unknown skills are returned lowercased and trimmed.
func Normalize(skill string) string {
	s := strings.ToLower(strings.TrimSpace(Fold(skill)))
	if c, ok := aliasToCanonical[s]; ok {
		return c
	}
	return s
}

// NormalizeAll normalizes and de-duplicates skills, keeping first-seen order.
func NormalizeAll(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, raw := range list {
		s := Normalize(raw)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// IsKnown reports whether s (already normalized) is a recognized skill.
func IsKnown(s string) bool {
	_, ok := known[s]
	return ok
}

// Dictionary returns a copy of the surface forms searched for in résumé text.
func Dictionary() []string {
	out := make([]string, 0, len(dictionary)+1)
	out = append(out, dictionary...)
	return append(out, "js")
}

// Fold strips combining marks so "Node.js Développeur" and "node.js developpeur"
// tokenize the same way.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Tokenize folds, lowercases and splits text into word tokens, dropping
// punctuation other than '+' and '#'.
func Tokenize(text string) []string {
	lower := strings.ToLower(Fold(text))
	return strings.Fields(nonToken.ReplaceAllString(lower, " "))
}
