package segment

import (
	"regexp"
	"strings"
)

const wordsPerMinute = 200

var (
	pageNumberLineRe = regexp.MustCompile(`(?mi)^[ \t]*(?:page[ \t]+)?\d+(?:[ \t]+of[ \t]+\d+)?[ \t]*$`)
	hspaceRe         = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	blankLinesRe     = regexp.MustCompile(`\n{3,}`)
)

// CleanBody strips PDF extraction noise: standalone page numbers, runs of
// horizontal whitespace and excess blank lines.
func CleanBody(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = pageNumberLineRe.ReplaceAllString(s, "")
	s = hspaceRe.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimSpace(ln)
	}
	s = strings.Join(lines, "\n")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// ReadingMinutes estimates reading time at 200 words per minute, never less
// than one minute.
func ReadingMinutes(body string) int {
	n := len(strings.Fields(body)) / wordsPerMinute
	if n < 1 {
		return 1
	}
	return n
}
