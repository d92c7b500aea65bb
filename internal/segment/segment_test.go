package segment

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertCovers(t *testing.T, text string, chapters []Chapter) {
	t.Helper()
	require.NotEmpty(t, chapters)
	assert.Equal(t, 0, chapters[0].Start)
	assert.Equal(t, len(text), chapters[len(chapters)-1].End)
	for i, c := range chapters {
		assert.Equal(t, i, c.Ordinal)
		assert.LessOrEqual(t, c.Start, c.End)
		if i > 0 {
			assert.Equal(t, chapters[i-1].End, c.Start, "gap or overlap before chapter %d", i)
		}
	}
}

func titles(chapters []Chapter) []string {
	out := make([]string, len(chapters))
	for i, c := range chapters {
		out[i] = c.Title
	}
	return out
}

func TestSegmentTwoChapters(t *testing.T) {
	text := "Chapter 1\nAlice...\nChapter 2\nBob..."
	got := Segment(text)

	require.Len(t, got, 2)
	assert.Equal(t, "Chapter 1", got[0].Title)
	assert.Equal(t, "Alice...", got[0].Body)
	assert.Equal(t, "Chapter 2", got[1].Title)
	assert.Equal(t, "Bob...", got[1].Body)
	assert.Equal(t, KindChapter, got[0].Kind)
	assertCovers(t, text, got)
}

func TestSegmentNoHeadings(t *testing.T) {
	text := "Just some prose.\nIt mentions a chapter in passing but never starts one.\n"
	got := Segment(text)

	require.Len(t, got, 1)
	assert.Equal(t, FullDocumentTitle, got[0].Title)
	assert.Equal(t, KindDocument, got[0].Kind)
	assertCovers(t, text, got)
}

func TestSegmentFrontMatter(t *testing.T) {
	lead := strings.Repeat("Copyright and dedication text. ", 10)
	text := lead + "\nChapter 1: Beginnings\nOnce upon a time.\nChapter 2: Endings\nThe end.\n"
	got := Segment(text)

	require.Len(t, got, 3)
	assert.Equal(t, FrontMatterTitle, got[0].Title)
	assert.Equal(t, KindFrontMatter, got[0].Kind)
	assert.Equal(t, "Chapter 1: Beginnings", got[1].Title)
	assert.Equal(t, "Once upon a time.", got[1].Body)
	assertCovers(t, text, got)
}

func TestSegmentTrivialLeadIsFoldedIntoFirstRange(t *testing.T) {
	text := "  iv \n\nChapter One\nText.\n"
	got := Segment(text)

	require.Len(t, got, 1)
	assert.Equal(t, "Chapter One", got[0].Title)
	assert.Equal(t, "Text.", got[0].Body)
	assertCovers(t, text, got)
}

func TestSegmentPatterns(t *testing.T) {
	tests := []struct {
		line string
		kind Kind
	}{
		{"Chapter 12", KindChapter},
		{"CHAPTER IV - The Storm", KindChapter},
		{"Chapter three: Rivers", KindChapter},
		{"Chapter iv", KindChapter},
		{"Part II", KindPart},
		{"PART ONE The Early Years", KindPart},
		{"Section 2.3 Results", KindSection},
		{"3. Methods and Materials", KindNumbered},
		{"THE GATHERING STORM", KindCaps},
		{"CHAPTER ONE", KindChapter},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			text := "Intro.\n" + tt.line + "\nBody text here.\n"
			got := Segment(text)
			require.Len(t, got, 1)
			assert.Equal(t, tt.line, got[0].Title)
			assert.Equal(t, tt.kind, got[0].Kind)
		})
	}
}

func TestSegmentIgnoresProse(t *testing.T) {
	lines := []string{
		"In this chapter 1 we discuss things.",
		"3. the lowercase start is a list item",
		"SHORT CAPS",
		"As discussed in Chapter 2, the results hold.",
		"Chapter 4 " + strings.Repeat("is a very long sentence ", 6),
		"chapter 4 and the appendix cover the remaining cases",
		"part 2 of the argument follows below",
		"section 3 explains why",
	}
	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			got := Segment("Intro.\n" + line + "\nMore.\n")
			require.Len(t, got, 1)
			assert.Equal(t, FullDocumentTitle, got[0].Title)
		})
	}
}

func TestSegmentSkipsContentsEntries(t *testing.T) {
	text := strings.Join([]string{
		"Contents",
		"Chapter 1 Introduction ........ 5",
		"Chapter 2 Methods . . . . . . 17",
		"Chapter 3 Results      29",
		"Chapter 1 Introduction",
		"Intro body.",
		"Chapter 2 Methods",
		"Methods body.",
	}, "\n")
	got := Segment(text)

	assert.Equal(t, []string{"Chapter 1 Introduction", "Chapter 2 Methods"}, titles(got))
	assertCovers(t, text, got)
}

func TestSegmentSpacedHeadingIsNotAContentsEntry(t *testing.T) {
	got := Segment("Chapter    7\nSeven.\n")
	require.Len(t, got, 1)
	assert.Equal(t, "Chapter 7", got[0].Title)
}

func TestSegmentDropsRunningHeaders(t *testing.T) {
	text := strings.Join([]string{
		"Chapter 1",
		"THE LONG BOOK TITLE",
		"page one text",
		"THE LONG BOOK TITLE",
		"page two text",
		"THE LONG BOOK TITLE",
		"Chapter 2",
		"more",
	}, "\n")
	got := Segment(text)
	assert.Equal(t, []string{"Chapter 1", "Chapter 2"}, titles(got))
}

func TestSegmentPartDepth(t *testing.T) {
	text := "Chapter 0\nPrologue.\nPart I\nChapter 1\nA.\nChapter 2\nB.\n"
	got := Segment(text)

	require.Len(t, got, 4)
	assert.Equal(t, []int{1, 1, 2, 2}, []int{got[0].Depth, got[1].Depth, got[2].Depth, got[3].Depth})
	assert.Equal(t, "", got[1].Body)
}

func TestSegmentCustomPattern(t *testing.T) {
	s := New(WithRules(), WithPattern(regexp.MustCompile(`^Lesson \d+$`)))
	text := "Lesson 1\nAdd.\nLesson 2\nSubtract.\nCHAPTER NINE ignored by empty rule set\n"
	got := s.Segment(text)

	assert.Equal(t, []string{"Lesson 1", "Lesson 2"}, titles(got))
	assert.Equal(t, KindCustom, got[0].Kind)
	assertCovers(t, text, got)
}

func TestSegmentCRLF(t *testing.T) {
	text := "Chapter 1\r\nAlpha\r\nChapter 2\r\nBeta\r\n"
	got := Segment(text)
	require.Len(t, got, 2)
	assert.Equal(t, "Chapter 1", got[0].Title)
	assert.Equal(t, "Alpha", got[0].Body)
	assertCovers(t, text, got)
}

func TestSegmentMinFrontMatterOption(t *testing.T) {
	text := "Dedicated to everyone.\nChapter 1\nBody.\n"
	assert.Len(t, Segment(text), 1)
	assert.Len(t, New(WithMinFrontMatter(5)).Segment(text), 2)
}

func TestCleanBody(t *testing.T) {
	in := "First   line\t\twith tabs\n\n\n\n12\nPage 3 of 10\nSecond line  \n"
	assert.Equal(t, "First line with tabs\n\nSecond line", CleanBody(in))
}

func TestReadingMinutes(t *testing.T) {
	assert.Equal(t, 1, ReadingMinutes(""))
	assert.Equal(t, 1, ReadingMinutes("a few words"))
	assert.Equal(t, 3, ReadingMinutes(strings.Repeat("word ", 650)))
}
