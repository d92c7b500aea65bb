package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultMinFrontMatter = 80
	maxHeadingRunes       = 100
	repeatedHeaderLimit   = 3

	FrontMatterTitle  = "Front Matter"
	FullDocumentTitle = "Full Document"
)

// Chapter is one contiguous slice of the source text. Start and End are byte
// offsets; consecutive chapters share their boundary.
type Chapter struct {
	Ordinal int    `json:"ordinal"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Kind    Kind   `json:"kind"`
	Depth   int    `json:"depth"`
}

type Segmenter struct {
	rules          []Rule
	minFrontMatter int
}

type Option func(*Segmenter)

// WithRules replaces the heading rules.
func WithRules(rules ...Rule) Option {
	return func(s *Segmenter) { s.rules = rules }
}

// WithPattern adds a custom heading pattern after the built-in rules.
func WithPattern(re *regexp.Regexp) Option {
	return func(s *Segmenter) { s.rules = append(s.rules, CustomRule(re)) }
}

// WithMinFrontMatter sets how many non-space characters the text before the
// first heading needs to become its own chapter.
func WithMinFrontMatter(n int) Option {
	return func(s *Segmenter) { s.minFrontMatter = n }
}

func New(opts ...Option) *Segmenter {
	s := &Segmenter{rules: DefaultRules(), minFrontMatter: DefaultMinFrontMatter}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Segment splits text with the default rules.
func Segment(text string) []Chapter { return New().Segment(text) }

type heading struct {
	start     int
	bodyStart int
	title     string
	kind      Kind
}

// Segment splits text at heading lines. The returned chapters cover
// [0, len(text)) without gaps. Text before the first heading becomes a
// "Front Matter" chapter when it is substantial; otherwise it is folded into
// the first chapter's range but not its body.
func (s *Segmenter) Segment(text string) []Chapter {
	heads := s.headings(text)
	if len(heads) == 0 {
		return []Chapter{{
			Ordinal: 0,
			Title:   FullDocumentTitle,
			Body:    CleanBody(text),
			Start:   0,
			End:     len(text),
			Kind:    KindDocument,
			Depth:   1,
		}}
	}

	var out []Chapter
	if lead := text[:heads[0].start]; nonSpaceRunes(lead) > s.minFrontMatter {
		out = append(out, Chapter{
			Title: FrontMatterTitle,
			Body:  CleanBody(lead),
			Start: 0,
			End:   heads[0].start,
			Kind:  KindFrontMatter,
			Depth: 1,
		})
	} else {
		heads[0].start = 0
	}

	inPart := false
	for i, h := range heads {
		end := len(text)
		if i+1 < len(heads) {
			end = heads[i+1].start
		}
		depth := 1
		switch {
		case h.kind == KindPart:
			inPart = true
		case inPart:
			depth = 2
		}
		out = append(out, Chapter{
			Title: h.title,
			Body:  CleanBody(text[h.bodyStart:end]),
			Start: h.start,
			End:   end,
			Kind:  h.kind,
			Depth: depth,
		})
	}
	for i := range out {
		out[i].Ordinal = i
	}
	return out
}

func (s *Segmenter) headings(text string) []heading {
	var heads []heading
	seen := map[string]int{}
	for off := 0; off < len(text); {
		nl := strings.IndexByte(text[off:], '\n')
		lineEnd, next := len(text), len(text)
		if nl >= 0 {
			lineEnd, next = off+nl, off+nl+1
		}
		if h, ok := s.heading(text[off:lineEnd]); ok {
			h.start, h.bodyStart = off, next
			heads = append(heads, h)
			seen[h.title]++
		}
		off = next
	}

	// Running page headers repeat an all-caps title on every page.
	out := heads[:0]
	for _, h := range heads {
		if h.kind == KindCaps && seen[h.title] >= repeatedHeaderLimit {
			continue
		}
		out = append(out, h)
	}
	return out
}

func (s *Segmenter) heading(raw string) (heading, bool) {
	line := collapseSpaces(raw)
	if line == "" || utf8.RuneCountInString(line) > maxHeadingRunes {
		return heading{}, false
	}
	if stripped, ok := contentsEntry(raw); ok {
		if _, isHeading := match(s.rules, stripped); isHeading {
			return heading{}, false
		}
	}
	r, ok := match(s.rules, line)
	if !ok {
		return heading{}, false
	}
	if (r.Kind == KindNumbered || r.Kind == KindCaps) && trailingPunct.MatchString(line) {
		return heading{}, false
	}
	return heading{title: line, kind: r.Kind}, true
}

func nonSpaceRunes(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
