package util

import (
	"errors"
	"path"
	"strings"
)

const maxFileNameLen = 255

// SanitizeFileName strips directories and separators from a client-supplied
// upload name and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	s = path.Base(s)
	if s == "." || s == "/" {
		s = ""
	}
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return "", errors.New("invalid file name")
	}
	if r := []rune(s); len(r) > maxFileNameLen {
		s = string(r[len(r)-maxFileNameLen:])
	}
	return s, nil
}
