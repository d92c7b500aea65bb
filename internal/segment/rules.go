package segment

import (
	"regexp"
	"strings"
)

type Kind string

const (
	KindPart        Kind = "part"
	KindChapter     Kind = "chapter"
	KindSection     Kind = "section"
	KindNumbered    Kind = "numbered"
	KindCaps        Kind = "caps"
	KindCustom      Kind = "custom"
	KindFrontMatter Kind = "front_matter"
	KindDocument    Kind = "document"
)

// Rule identifies a heading line. Keyword is the literal text the rule
// requires; when several rules match one line the longest keyword wins.
type Rule struct {
	Kind    Kind
	Keyword string
	Pattern *regexp.Regexp
}

const spelled = `one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|thirteen|fourteen|fifteen|sixteen|seventeen|eighteen|nineteen|twenty`

// heading suffix: nothing, or a separator followed by a title.
const titleTail = `(?:\s*[:.\-\x{2013}\x{2014}]\s*.*|\s+.*)?$`

var (
	chapterRe  = keywordRe("Chapter", `\d+|[ivxlcdm]+|`+spelled, "")
	sectionRe  = keywordRe("Section", `\d+`, `(?:\.\d+)*`)
	partRe     = keywordRe("Part", `\d+|[ivxlcdm]+|`+spelled, "")
	numberedRe = regexp.MustCompile(`^\d{1,3}\.\s+\p{Lu}.*$`)
	capsRe     = regexp.MustCompile(`^[A-Z][A-Z\s]{10,}$`)
)

// keywordRe matches "Keyword N" or "KEYWORD N" at the start of a line. A
// lowercase keyword is usually a wrapped sentence, so it never matches.
func keywordRe(word, number, suffix string) *regexp.Regexp {
	return regexp.MustCompile(`^(?:` + word + `|` + strings.ToUpper(word) + `)\s+(?i:` + number + `)` + suffix + `\b` + titleTail)
}

// DefaultRules returns the built-in heading rules in tie-break order.
func DefaultRules() []Rule {
	return []Rule{
		{Kind: KindChapter, Keyword: "chapter", Pattern: chapterRe},
		{Kind: KindSection, Keyword: "section", Pattern: sectionRe},
		{Kind: KindPart, Keyword: "part", Pattern: partRe},
		{Kind: KindNumbered, Pattern: numberedRe},
		{Kind: KindCaps, Pattern: capsRe},
	}
}

// CustomRule builds a rule from a user pattern. Its keyword is the
// pattern's literal prefix.
func CustomRule(re *regexp.Regexp) Rule {
	prefix, _ := re.LiteralPrefix()
	return Rule{Kind: KindCustom, Keyword: strings.TrimSpace(prefix), Pattern: re}
}

// match returns the winning rule for a cleaned line.
func match(rules []Rule, line string) (Rule, bool) {
	best := -1
	for i, r := range rules {
		if !r.Pattern.MatchString(line) {
			continue
		}
		if best == -1 || len(r.Keyword) > len(rules[best].Keyword) {
			best = i
		}
	}
	if best == -1 {
		return Rule{}, false
	}
	return rules[best], true
}

var (
	dotLeaderRe   = regexp.MustCompile(`(?:\.\s*){3,}\d+$`)
	spacedPageRe  = regexp.MustCompile(`\S\s{2,}\d+$`)
	trailingPunct = regexp.MustCompile(`[,;]$`)
)

var pageRefRe = regexp.MustCompile(`[\s.]*\d+$`)

// contentsEntry reports whether a raw line is a table of contents entry
// ("Chapter 1 Introduction ........ 5") and returns it without the leader
// and page number.
func contentsEntry(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "…", "...")
	s = strings.ReplaceAll(s, "·", ".")
	s = strings.ReplaceAll(s, "•", ".")
	if !dotLeaderRe.MatchString(s) && !spacedPageRe.MatchString(s) {
		return "", false
	}
	return collapseSpaces(pageRefRe.ReplaceAllString(s, "")), true
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
