package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCollapsesSynonyms(t *testing.T) {
	cases := map[string]string{
		"JS":                  "javascript",
		"Node.js":             "javascript",
		"nodejs":              "javascript",
		"ReactJS":             "react",
		"PostgreSQL":          "sql",
		"Amazon Web Services": "aws",
		"Tailwind":            "css",
		"Kubernetes":          "kubernetes",
		"  Rust ":             "rust",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "Normalize(%q)", in)
	}
}

func TestNormalizeAllDeduplicates(t *testing.T) {
	got := NormalizeAll([]string{"javascript", "node", "React", "react.js", "", "html"})
	assert.Equal(t, []string{"javascript", "react", "html"}, got)
}

func TestJobKeywordsIsASet(t *testing.T) {
	got := JobKeywords(
		"Senior Full Stack Engineer",
		"Looking for JavaScript, React, Node.js expert with at least 5 years experience.",
		"Engineering",
	)
	assert.ElementsMatch(t, []string{"javascript", "react"}, got)
}

func TestJobKeywordsMatchesPhrasesAndFoldsAccents(t *testing.T) {
	got := JobKeywords("Développeur Python", "Experience with Google Cloud Platform and Docker", "")
	assert.ElementsMatch(t, []string{"python", "gcp", "docker"}, got)
}

func TestJobKeywordsDropsShortTokens(t *testing.T) {
	got := JobKeywords("AI engineer", "ML and JS", "")
	assert.Empty(t, got)
}

func TestYears(t *testing.T) {
	require.Nil(t, MaxYears("no numbers here"))

	max := MaxYears("2 years at A, 6+ yrs overall, 3 years at B")
	require.NotNil(t, max)
	assert.Equal(t, 6, *max)

	first := FirstYears("at least 5 years experience; company founded 20 years ago")
	require.NotNil(t, first)
	assert.Equal(t, 5, *first)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"c#", "and", "c++", "node", "js"}, Tokenize("C#, and C++ (Node.js)"))
}
