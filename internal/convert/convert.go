// Package convert runs the whole PDF to summary-document flow for the CLI.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-summarizer/internal/export"
	"github.com/thywilljoshua/pdf-summarizer/internal/extract"
	"github.com/thywilljoshua/pdf-summarizer/internal/segment"
	"github.com/thywilljoshua/pdf-summarizer/internal/summarize"
)

const chaptersDir = "chapters"

var ErrNoSummarizer = errors.New("convert: no summarizer configured")

// Run extracts, segments and summarizes the PDF at pdfPath and writes one
// report per format to cfg.OutDir. When summarization stops early the
// partial report is still written and the pipeline error is returned with
// the result.
func Run(ctx context.Context, pdfPath string, cfg Config) (Result, error) {
	if cfg.Summarizer == nil {
		return Result{}, ErrNoSummarizer
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "."
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = []export.Format{export.Markdown}
	}
	if cfg.Segmenter == nil {
		cfg.Segmenter = segment.New()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return Result{}, err
	}

	doc, err := extract.File(pdfPath)
	if err != nil {
		return Result{}, err
	}
	name := filepath.Base(pdfPath)
	chapters := cfg.Segmenter.Segment(doc.Text)
	cfg.Log.Info("document segmented",
		zap.String("file", name),
		zap.Int("pages", doc.PageCount()),
		zap.Int("chapters", len(chapters)),
	)

	opts := cfg.Pipeline
	opts.Provider = string(cfg.Model.Provider)
	rep, runErr := summarize.New(cfg.Summarizer, opts, cfg.Log).Summarize(ctx, name, chapters)

	res := Result{
		Document:  name,
		Pages:     doc.PageCount(),
		Chapters:  len(chapters),
		Succeeded: rep.Succeeded(),
		Failures:  rep.Failures,
		OutDir:    cfg.OutDir,
	}
	edoc := export.Document{
		Source:   name,
		Pages:    doc.PageCount(),
		Provider: string(cfg.Model.Provider),
		Model:    cfg.Model.ModelName,
		Report:   rep,
	}
	now := cfg.Now()
	for _, f := range cfg.Formats {
		a, err := export.Render(edoc, f, now)
		if err != nil {
			return res, err
		}
		path := filepath.Join(cfg.OutDir, a.FileName)
		if err := os.WriteFile(path, []byte(a.Content), 0o644); err != nil {
			return res, err
		}
		res.Files = append(res.Files, path)
	}

	if cfg.Split {
		files, err := writeChapters(filepath.Join(cfg.OutDir, chaptersDir), rep, cfg.Formats, now)
		res.Files = append(res.Files, files...)
		if err != nil {
			return res, err
		}
	}
	return res, runErr
}

func writeChapters(dir string, rep *summarize.Report, formats []export.Format, now time.Time) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var files []string
	for _, r := range rep.Results() {
		for _, f := range formats {
			a, err := export.RenderChapter(r, f, now)
			if err != nil {
				return files, err
			}
			path := filepath.Join(dir, a.FileName)
			if err := os.WriteFile(path, []byte(a.Content), 0o644); err != nil {
				return files, err
			}
			files = append(files, path)
		}
	}
	index, err := writeIndex(dir, rep, formats[0])
	if err != nil {
		return files, err
	}
	return append(files, index), nil
}

// writeIndex lists the per-chapter files with their status.
func writeIndex(dir string, rep *summarize.Report, format export.Format) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", rep.Document)
	for _, r := range rep.Results() {
		file := export.ChapterFileName(r.Chapter.Ordinal, r.Chapter.Title, format)
		fmt.Fprintf(&b, "- [%s](./%s)", r.Chapter.Title, file)
		if !r.OK() {
			fmt.Fprintf(&b, " (%s)", r.Status)
		}
		b.WriteString("\n")
	}
	path := filepath.Join(dir, "index.md")
	return path, os.WriteFile(path, []byte(b.String()), 0o644)
}
