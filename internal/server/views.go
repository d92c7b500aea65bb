package server

import (
	"time"

	"github.com/thywilljoshua/pdf-summarizer/internal/config"
	"github.com/thywilljoshua/pdf-summarizer/internal/segment"
	"github.com/thywilljoshua/pdf-summarizer/internal/session"
	"github.com/thywilljoshua/pdf-summarizer/internal/summarize"
)

// Views leave chapter bodies out of API responses.

type chapterView struct {
	Ordinal        int          `json:"ordinal"`
	Title          string       `json:"title"`
	Kind           segment.Kind `json:"kind"`
	Depth          int          `json:"depth"`
	Chars          int          `json:"chars"`
	ReadingMinutes int          `json:"reading_minutes"`
}

type resultView struct {
	Ordinal  int              `json:"ordinal"`
	Title    string           `json:"title"`
	Status   summarize.Status `json:"status"`
	Summary  string           `json:"summary,omitempty"`
	Error    string           `json:"error,omitempty"`
	Attempts int              `json:"attempts"`
}

type reportView struct {
	Document   string              `json:"document"`
	Succeeded  int                 `json:"succeeded"`
	Chapters   []resultView        `json:"chapters"`
	Overall    resultView          `json:"overall"`
	Failures   []summarize.Failure `json:"failures"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
}

type sessionView struct {
	ID         string              `json:"id"`
	DocumentID string              `json:"document_id,omitempty"`
	FileName   string              `json:"file_name,omitempty"`
	Pages      int                 `json:"pages,omitempty"`
	Chapters   []chapterView       `json:"chapters"`
	Config     *config.ModelConfig `json:"config,omitempty"`
	Report     *reportView         `json:"report,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func newChapterViews(chapters []segment.Chapter) []chapterView {
	out := make([]chapterView, len(chapters))
	for i, c := range chapters {
		out[i] = chapterView{
			Ordinal:        c.Ordinal,
			Title:          c.Title,
			Kind:           c.Kind,
			Depth:          c.Depth,
			Chars:          len([]rune(c.Body)),
			ReadingMinutes: segment.ReadingMinutes(c.Body),
		}
	}
	return out
}

func newResultView(r summarize.Result) resultView {
	return resultView{
		Ordinal:  r.Chapter.Ordinal,
		Title:    r.Chapter.Title,
		Status:   r.Status,
		Summary:  r.Summary,
		Error:    r.Error,
		Attempts: r.Attempts,
	}
}

func newReportView(rep *summarize.Report) *reportView {
	if rep == nil {
		return nil
	}
	v := &reportView{
		Document:   rep.Document,
		Succeeded:  rep.Succeeded(),
		Chapters:   make([]resultView, len(rep.Chapters)),
		Overall:    newResultView(rep.Overall),
		Failures:   rep.Failures,
		StartedAt:  rep.StartedAt,
		FinishedAt: rep.FinishedAt,
	}
	for i, r := range rep.Chapters {
		v.Chapters[i] = newResultView(r)
	}
	if v.Failures == nil {
		v.Failures = []summarize.Failure{}
	}
	return v
}

func newSessionView(st session.State) sessionView {
	return sessionView{
		ID:         st.ID,
		DocumentID: st.DocumentID,
		FileName:   st.FileName,
		Pages:      st.Pages,
		Chapters:   newChapterViews(st.Chapters),
		Config:     st.Config,
		Report:     newReportView(st.Report),
		CreatedAt:  st.CreatedAt,
		UpdatedAt:  st.UpdatedAt,
	}
}
