package ocr

import (
	"regexp"
	"strings"
)

var (
	reCRLF     = regexp.MustCompile(`\r\n?`)
	reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)
)

// Normalize cleans OCR engine output without touching characters inside a line:
// CRLF becomes LF, ruler lines of dashes/underscores are dropped, trailing spaces are trimmed.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reBoxNoise.ReplaceAllString(s, "")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
