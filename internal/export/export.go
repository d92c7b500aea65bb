// Package export renders summarization reports as plain text, Markdown or
// HTML documents.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thywilljoshua/pdf-summarizer/internal/summarize"
)

const (
	BaseName   = "chapter_summaries"
	TimeLayout = "2006-01-02 15:04:05 MST"
	ruleWidth  = 60
	docTitle   = "Chapter Summaries"
)

var ErrNoReport = errors.New("export: no report to render")

// Document is everything a rendered artifact describes.
type Document struct {
	Source   string
	Pages    int
	Provider string
	Model    string
	Report   *summarize.Report
}

type Artifact struct {
	Format      Format    `json:"format"`
	Content     string    `json:"-"`
	GeneratedAt time.Time `json:"generated_at"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
}

// Render builds the full report in the given format. The output depends only
// on doc and now.
func Render(doc Document, format Format, now time.Time) (Artifact, error) {
	if doc.Report == nil {
		return Artifact{}, ErrNoReport
	}
	var (
		content string
		err     error
	)
	switch format {
	case Text:
		content = renderText(doc, now)
	case Markdown:
		content = renderMarkdown(doc, now)
	case HTML:
		content, err = toHTML(title(doc), renderMarkdown(doc, now))
	default:
		return Artifact{}, fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{
		Format:      format,
		Content:     content,
		GeneratedAt: now,
		FileName:    BaseName + format.Ext(),
		ContentType: format.ContentType(),
	}, nil
}

// RenderChapter builds a standalone download for one result.
func RenderChapter(r summarize.Result, format Format, now time.Time) (Artifact, error) {
	var (
		content string
		err     error
	)
	switch format {
	case Text:
		content = fmt.Sprintf("%s\n%s\n\nGenerated: %s\n\n%s\n", r.Chapter.Title,
			strings.Repeat("=", len([]rune(r.Chapter.Title))), now.Format(TimeLayout), summaryText(r))
	case Markdown:
		content = chapterMarkdown(r, now)
	case HTML:
		content, err = toHTML(r.Chapter.Title, chapterMarkdown(r, now))
	default:
		return Artifact{}, fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{
		Format:      format,
		Content:     content,
		GeneratedAt: now,
		FileName:    ChapterFileName(r.Chapter.Ordinal, r.Chapter.Title, format),
		ContentType: format.ContentType(),
	}, nil
}

func title(doc Document) string {
	if doc.Source == "" {
		return docTitle
	}
	return docTitle + ": " + doc.Source
}

func unavailable(r summarize.Result) string {
	return fmt.Sprintf("[Summary unavailable: %s]", r.Reason())
}

func summaryText(r summarize.Result) string {
	if r.OK() {
		return strings.TrimSpace(r.Summary)
	}
	return unavailable(r)
}

func isOverall(r summarize.Result) bool {
	return r.Chapter.Ordinal == summarize.OverallOrdinal
}

func sourceLine(doc Document) string {
	if doc.Pages > 0 {
		return fmt.Sprintf("%s (%d pages)", doc.Source, doc.Pages)
	}
	return doc.Source
}

func modelLine(doc Document) string {
	switch {
	case doc.Provider == "":
		return doc.Model
	case doc.Model == "":
		return doc.Provider
	}
	return doc.Provider + " / " + doc.Model
}

func countLine(rep *summarize.Report) string {
	return fmt.Sprintf("%d of %d summarized", rep.Succeeded(), len(rep.Chapters))
}
