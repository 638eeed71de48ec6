package util

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"resume.pdf":              "resume.pdf",
		"  cv final.docx ":        "cv final.docx",
		"C:\\Users\\me\\cv.pdf":   "cv.pdf",
		"uploads/2024/resume.txt": "resume.txt",
		"tab\tname.pdf":           "tabname.pdf",
	}
	for in, want := range cases {
		got, err := SanitizeFileName(in)
		if err != nil {
			t.Fatalf("SanitizeFileName(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeFileNameRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "../etc/passwd", "a/..", "/"} {
		if got, err := SanitizeFileName(in); err == nil {
			t.Fatalf("SanitizeFileName(%q) = %q, expected error", in, got)
		}
	}
}
