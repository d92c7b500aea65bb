package export

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/thywilljoshua/pdf-summarizer/internal/segment"
	"github.com/thywilljoshua/pdf-summarizer/internal/summarize"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

func renderMarkdown(doc Document, now time.Time) string {
	var head, toc, body strings.Builder

	fmt.Fprintf(&head, "# %s\n\n", escapeInline(title(doc)))
	fmt.Fprintf(&head, "- **Generated:** %s\n", now.Format(TimeLayout))
	if doc.Source != "" {
		fmt.Fprintf(&head, "- **Source:** %s\n", escapeInline(sourceLine(doc)))
	}
	if m := modelLine(doc); m != "" {
		fmt.Fprintf(&head, "- **Model:** %s\n", escapeInline(m))
	}
	fmt.Fprintf(&head, "- **Chapters:** %s\n\n", countLine(doc.Report))
	head.WriteString("## Table of Contents\n\n")

	results := doc.Report.Results()
	starts := make([]int, len(results))
	for i, r := range results {
		if i > 0 {
			body.WriteString("---\n\n")
		}
		starts[i] = head.Len() + body.Len()
		fmt.Fprintf(&body, "## %s\n\n", escapeInline(r.Chapter.Title))
		if !isOverall(r) {
			fmt.Fprintf(&body, "*Reading time: ~%d min*\n\n", segment.ReadingMinutes(r.Chapter.Body))
		}
		if r.OK() {
			body.WriteString(demoteHeadings(strings.TrimSpace(r.Summary), 2))
		} else {
			body.WriteString(unavailableMarkdown(r))
		}
		body.WriteString("\n\n")
	}

	// The table of contents holds no headings, so ids assigned without it
	// match the final document.
	ids := headingIDs([]byte(head.String()+body.String()), starts)
	for i, r := range results {
		fmt.Fprintf(&toc, "%d. [%s](#%s)\n", i+1, escapeInline(r.Chapter.Title), ids[i])
	}
	toc.WriteString("\n")

	return head.String() + toc.String() + body.String()
}

func chapterMarkdown(r summarize.Result, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escapeInline(r.Chapter.Title))
	fmt.Fprintf(&b, "*Generated: %s*\n\n", now.Format(TimeLayout))
	if r.OK() {
		b.WriteString(demoteHeadings(strings.TrimSpace(r.Summary), 1))
	} else {
		b.WriteString(unavailableMarkdown(r))
	}
	b.WriteString("\n")
	return b.String()
}

// headingIDs parses src and returns the auto-generated id of the level-2
// heading starting at each offset in starts.
func headingIDs(src []byte, starts []int) []string {
	ids := make([]string, len(starts))
	doc := md.Parser().Parse(text.NewReader(src))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !entering || !ok || h.Level != 2 || h.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}
		at := h.Lines().At(0).Start
		i := owner(starts, at)
		if i < 0 || ids[i] != "" {
			return ast.WalkContinue, nil
		}
		if v, ok := h.AttributeString("id"); ok {
			if b, ok := v.([]byte); ok {
				ids[i] = string(b)
			}
		}
		return ast.WalkContinue, nil
	})
	return ids
}

// owner returns the index of the last start at or before off.
func owner(starts []int, off int) int {
	idx := -1
	for i, s := range starts {
		if s > off {
			break
		}
		idx = i
	}
	return idx
}

var atxHeading = regexp.MustCompile(`^( {0,3})(#{1,6})([ \t]|$)`)

// demoteHeadings pushes ATX headings outside code fences down by levels,
// stopping at h6. An unterminated fence is closed.
func demoteHeadings(src string, levels int) string {
	lines := strings.Split(src, "\n")
	fence := ""
	for i, ln := range lines {
		trimmed := strings.TrimLeft(ln, " ")
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			switch marker := trimmed[:3]; {
			case fence == "":
				fence = marker
			case fence == marker:
				fence = ""
			}
			continue
		}
		if fence != "" {
			continue
		}
		m := atxHeading.FindStringSubmatchIndex(ln)
		if m == nil {
			continue
		}
		level := min(m[5]-m[4]+levels, 6)
		lines[i] = ln[:m[4]] + strings.Repeat("#", level) + ln[m[5]:]
	}
	if fence != "" {
		lines = append(lines, fence)
	}
	return strings.Join(lines, "\n")
}

var inlineSpecial = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	"#", `\#`,
)

func unavailableMarkdown(r summarize.Result) string {
	return "[Summary unavailable: " + escapeInline(r.Reason()) + "]"
}

// escapeInline keeps PDF-derived titles from being read as Markdown syntax.
func escapeInline(s string) string { return inlineSpecial.Replace(s) }

const htmlHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
body { max-width: 48rem; margin: 2rem auto; padding: 0 1rem; font-family: Georgia, serif; line-height: 1.6; color: #222; }
h1, h2, h3 { font-family: system-ui, sans-serif; }
hr { border: 0; border-top: 1px solid #ccc; margin: 2rem 0; }
code, pre { background: #f5f5f5; }
</style>
</head>
<body>
`

const htmlFoot = `</body>
</html>
`

func toHTML(title, src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return fmt.Sprintf(htmlHead, html.EscapeString(title)) + buf.String() + htmlFoot, nil
}
