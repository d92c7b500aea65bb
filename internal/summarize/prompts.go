package summarize

import (
	"fmt"
	"strings"
)

const DefaultChapterPrompt = `Please provide a comprehensive summary of this chapter that includes:
1. Main topics and key concepts
2. Important details and examples
3. Key takeaways and insights
4. How this chapter relates to the overall theme

Keep the summary detailed but concise, focusing on the most important information.`

const systemPrompt = "You summarize chapters of books and long documents. Answer in Markdown without code fences. Base the summary only on the supplied text."

const combinePrompt = `The following are summaries of consecutive parts of the chapter "%s".
Combine them into a single summary of the whole chapter, following these instructions:

%s

Partial summaries:

%s`

const overallPrompt = `The following are summaries of every chapter of the document "%s", in order.
Write an overall summary of the document: its central theme, how the chapters build on each other, and the most important conclusions.

%s`

func chapterRequest(instructions, title, body string, part, parts int) string {
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\n")
	if parts > 1 {
		fmt.Fprintf(&b, "Chapter: %s (part %d of %d)\n\n", title, part, parts)
	} else {
		fmt.Fprintf(&b, "Chapter: %s\n\n", title)
	}
	b.WriteString(body)
	return b.String()
}

func combineRequest(instructions, title string, partials []string) string {
	return fmt.Sprintf(combinePrompt, title, instructions, numbered(partials))
}

// chapterBlock renders one chapter summary as overall-request input.
func chapterBlock(r Result) string {
	return "## " + r.Chapter.Title + "\n\n" + strings.TrimSpace(r.Summary)
}

func overallRequest(document string, blocks []string) string {
	return fmt.Sprintf(overallPrompt, document, strings.Join(blocks, "\n\n"))
}

func numbered(parts []string) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d]\n%s", i+1, p)
	}
	return b.String()
}
