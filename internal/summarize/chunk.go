package summarize

import (
	"strings"
	"unicode/utf8"
)

var separators = []string{"\n\n", "\n", ". ", " "}

// Split breaks text into pieces of at most max bytes, preferring paragraph,
// then line, sentence and word boundaries. Pieces are trimmed and never
// empty.
func Split(text string, max int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if max <= 0 || len(text) <= max {
		return []string{text}
	}
	return splitWith(text, max, 0)
}

func splitWith(text string, max, sep int) []string {
	if len(text) <= max {
		if t := strings.TrimSpace(text); t != "" {
			return []string{t}
		}
		return nil
	}
	if sep >= len(separators) {
		return hardSplit(text, max)
	}

	var out []string
	cur := ""
	flush := func() {
		if t := strings.TrimSpace(cur); t != "" {
			out = append(out, t)
		}
		cur = ""
	}
	// Separators stay on the left piece so sentences keep their periods.
	for _, part := range strings.SplitAfter(text, separators[sep]) {
		if len(strings.TrimSpace(cur+part)) <= max {
			cur += part
			continue
		}
		flush()
		if len(strings.TrimSpace(part)) > max {
			out = append(out, splitWith(part, max, sep+1)...)
			continue
		}
		cur = part
	}
	flush()
	return out
}

// hardSplit cuts on rune boundaries when no separator fits.
func hardSplit(text string, max int) []string {
	var out []string
	for len(text) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			_, cut = utf8.DecodeRuneInString(text)
		}
		if t := strings.TrimSpace(text[:cut]); t != "" {
			out = append(out, t)
		}
		text = text[cut:]
	}
	if t := strings.TrimSpace(text); t != "" {
		out = append(out, t)
	}
	return out
}
