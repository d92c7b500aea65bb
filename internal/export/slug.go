package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/thywilljoshua/pdf-summarizer/internal/summarize"
)

const maxSlugRunes = 60

var nonSlug = regexp.MustCompile(`[^\p{L}\p{N}]+`)

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlug.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if r := []rune(s); len(r) > maxSlugRunes {
		s = strings.TrimRight(string(r[:maxSlugRunes]), "_")
	}
	return s
}

// ChapterFileName names a per-chapter download, e.g. "03_the_long_road.md".
// The ordinal prefix keeps chapters with equal titles apart.
func ChapterFileName(ordinal int, title string, format Format) string {
	slug := slugify(title)
	if ordinal == summarize.OverallOrdinal {
		if slug == "" {
			slug = "overall_summary"
		}
		return slug + format.Ext()
	}
	if slug == "" {
		slug = "chapter"
	}
	return fmt.Sprintf("%02d_%s%s", ordinal, slug, format.Ext())
}
