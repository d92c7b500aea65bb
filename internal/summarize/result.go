package summarize

import (
	"fmt"
	"time"

	"github.com/thywilljoshua/pdf-summarizer/internal/segment"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusEmpty   Status = "empty"
)

// OverallOrdinal marks the document-level result.
const OverallOrdinal = -1

const OverallTitle = "Overall Summary"

// Result is the outcome for one chapter, or for the whole document when
// Chapter.Ordinal is OverallOrdinal.
type Result struct {
	Chapter     segment.Chapter `json:"chapter"`
	Summary     string          `json:"summary,omitempty"`
	Status      Status          `json:"status"`
	Error       string          `json:"error,omitempty"`
	Err         error           `json:"-"`
	Attempts    int             `json:"attempts"`
	GeneratedAt time.Time       `json:"generated_at"`
}

func (r Result) OK() bool { return r.Status == StatusOK }

// Reason is the human readable explanation for a missing summary.
func (r Result) Reason() string {
	switch {
	case r.Error != "":
		return r.Error
	case r.Status == StatusEmpty:
		return "chapter has no text"
	}
	return string(r.Status)
}

// ChapterError records why one chapter has no summary.
type ChapterError struct {
	Ordinal int
	Title   string
	Err     error
}

func (e *ChapterError) Error() string {
	return fmt.Sprintf("chapter %d (%s): %v", e.Ordinal, e.Title, e.Err)
}

func (e *ChapterError) Unwrap() error { return e.Err }

type Failure struct {
	Ordinal int    `json:"ordinal"`
	Title   string `json:"title"`
	Reason  string `json:"reason"`
}

type Report struct {
	Document   string    `json:"document"`
	Chapters   []Result  `json:"chapters"`
	Overall    Result    `json:"overall"`
	Failures   []Failure `json:"failures"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Results returns the chapter results followed by the overall result.
func (r *Report) Results() []Result {
	out := make([]Result, 0, len(r.Chapters)+1)
	out = append(out, r.Chapters...)
	return append(out, r.Overall)
}

func (r *Report) Succeeded() int {
	n := 0
	for _, c := range r.Chapters {
		if c.OK() {
			n++
		}
	}
	return n
}

// Errors returns a ChapterError for every chapter without a summary.
func (r *Report) Errors() []*ChapterError {
	var out []*ChapterError
	for _, res := range r.Results() {
		if res.Status == StatusFailed || res.Status == StatusSkipped {
			out = append(out, &ChapterError{Ordinal: res.Chapter.Ordinal, Title: res.Chapter.Title, Err: res.Err})
		}
	}
	return out
}

func overallChapter() segment.Chapter {
	return segment.Chapter{Ordinal: OverallOrdinal, Title: OverallTitle, Kind: "overall"}
}
