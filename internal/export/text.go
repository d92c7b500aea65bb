package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/thywilljoshua/pdf-summarizer/internal/segment"
)

func renderText(doc Document, now time.Time) string {
	var b strings.Builder
	t := title(doc)
	b.WriteString(t + "\n")
	b.WriteString(strings.Repeat("=", len([]rune(t))) + "\n\n")

	fmt.Fprintf(&b, "Generated: %s\n", now.Format(TimeLayout))
	if doc.Source != "" {
		fmt.Fprintf(&b, "Source:    %s\n", sourceLine(doc))
	}
	if m := modelLine(doc); m != "" {
		fmt.Fprintf(&b, "Model:     %s\n", m)
	}
	fmt.Fprintf(&b, "Chapters:  %s\n\n", countLine(doc.Report))

	results := doc.Report.Results()
	b.WriteString("Table of Contents\n")
	b.WriteString("-----------------\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Chapter.Title)
	}
	b.WriteString("\n" + strings.Repeat("=", ruleWidth) + "\n")

	for i, r := range results {
		if i > 0 {
			b.WriteString(strings.Repeat("-", ruleWidth) + "\n")
		}
		b.WriteString("\n" + r.Chapter.Title + "\n")
		if !isOverall(r) {
			fmt.Fprintf(&b, "Reading time: ~%d min\n", segment.ReadingMinutes(r.Chapter.Body))
		}
		b.WriteString("\n" + summaryText(r) + "\n\n")
	}
	return b.String()
}
