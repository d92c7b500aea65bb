package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-summarizer/internal/ai"
	"github.com/thywilljoshua/pdf-summarizer/internal/config"
	"github.com/thywilljoshua/pdf-summarizer/internal/export"
	"github.com/thywilljoshua/pdf-summarizer/internal/extract"
	"github.com/thywilljoshua/pdf-summarizer/internal/session"
	"github.com/thywilljoshua/pdf-summarizer/internal/summarize"
)

type summarizeRequest struct {
	Provider string `json:"provider"`
	config.RawParams
	Prompt string `json:"prompt,omitempty"`
}

func (s *Server) createSession(c *gin.Context) {
	st := s.store.Create()
	c.JSON(http.StatusCreated, newSessionView(st))
}

func (s *Server) getSession(c *gin.Context) {
	st, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newSessionView(st))
}

func (s *Server) deleteSession(c *gin.Context) {
	if err := s.store.Delete(c.Param("id")); err != nil {
		notFound(c, err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

// uploadDocument extracts and segments the uploaded PDF, replacing whatever
// the session held before.
func (s *Server) uploadDocument(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.session(c); !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			abort(c, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		badRequest(c, "file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		internalError(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		internalError(c, err)
		return
	}

	name := filepath.Base(fh.Filename)
	doc, err := extract.Bytes(name, data)
	if err != nil {
		abort(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	chapters := s.opts.Segmenter.Segment(doc.Text)

	st, err := s.store.Reset(id, session.Document{FileName: name, Pages: doc.PageCount(), Chapters: chapters})
	if err != nil {
		notFound(c, err.Error())
		return
	}
	s.log.Info("document loaded",
		zap.String("session", id),
		zap.String("file", name),
		zap.Int("pages", doc.PageCount()),
		zap.Int("chapters", len(chapters)),
	)
	c.JSON(http.StatusOK, newSessionView(st))
}

// summarize runs the pipeline synchronously over the session's chapters.
func (s *Server) summarize(c *gin.Context) {
	id := c.Param("id")
	st, ok := s.session(c)
	if !ok {
		return
	}
	if !st.HasDocument() {
		conflict(c, "upload a document first")
		return
	}

	var req summarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.APIKey == "" {
		s.applyServerKey(&req)
	}
	cfg, err := config.Resolve(req.Provider, req.RawParams)
	if err != nil {
		var ce *config.ConfigError
		if errors.As(err, &ce) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"ok": 0, "code": http.StatusBadRequest, "message": ce.Error(),
				"kind": ce.Kind, "field": ce.Field,
			})
			return
		}
		badRequest(c, err.Error())
		return
	}

	sum, err := s.opts.NewSummarizer(c.Request.Context(), cfg)
	if err != nil {
		abort(c, http.StatusBadGateway, err.Error())
		return
	}
	opts := s.opts.Pipeline
	opts.Provider = string(cfg.Provider)
	if req.Prompt != "" {
		opts.Prompt = req.Prompt
	}
	log := s.log.With(zap.String("session", id))
	rep, runErr := summarize.New(sum, opts, log).Summarize(c.Request.Context(), st.FileName, st.Chapters)

	if _, err := s.store.SetReport(id, st.DocumentID, cfg, rep); err != nil {
		switch {
		case errors.Is(err, session.ErrStale):
			conflict(c, err.Error())
		default:
			notFound(c, err.Error())
		}
		return
	}

	if runErr != nil {
		status := http.StatusBadGateway
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		body := gin.H{"ok": 0, "code": status, "message": runErr.Error(), "report": newReportView(rep)}
		var pe *ai.ProviderError
		if errors.As(runErr, &pe) {
			body["kind"] = pe.Kind.String()
		}
		log.Warn("summarization aborted", zap.Error(runErr))
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, newReportView(rep))
}

// applyServerKey fills in the operator's key only when the request targets
// the host the operator configured for that provider. The custom provider
// has no default host, so it needs one configured on the server.
func (s *Server) applyServerKey(req *summarizeRequest) {
	p, err := config.ParseProvider(req.Provider)
	if err != nil {
		return
	}
	key := s.opts.Keys[p]
	if key == "" {
		return
	}
	host := strings.TrimRight(strings.TrimSpace(req.APIHost), "/")
	configured := strings.TrimRight(s.opts.Hosts[p], "/")
	switch {
	case p == config.ProviderCustom && configured == "":
		return
	case host != "" && host != configured:
		return
	}
	req.APIKey = key
	req.APIHost = configured
}

func (s *Server) exportReport(c *gin.Context) {
	st, ok := s.reported(c)
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	a, err := export.Render(exportDocument(st), format, s.opts.Now())
	if err != nil {
		internalError(c, err)
		return
	}
	attachment(c, a.FileName, a.ContentType, []byte(a.Content))
}

// exportChapter serves one chapter; the ordinal "overall" selects the
// overall summary.
func (s *Server) exportChapter(c *gin.Context) {
	st, ok := s.reported(c)
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	ordinal := summarize.OverallOrdinal
	if p := c.Param("ordinal"); p != "overall" {
		if ordinal, err = strconv.Atoi(p); err != nil {
			badRequest(c, "invalid chapter ordinal")
			return
		}
	}
	for _, r := range st.Report.Results() {
		if r.Chapter.Ordinal != ordinal {
			continue
		}
		a, err := export.RenderChapter(r, format, s.opts.Now())
		if err != nil {
			internalError(c, err)
			return
		}
		attachment(c, a.FileName, a.ContentType, []byte(a.Content))
		return
	}
	notFound(c, "chapter not found")
}

func (s *Server) session(c *gin.Context) (session.State, bool) {
	st, err := s.store.Get(c.Param("id"))
	if err != nil {
		notFound(c, err.Error())
		return session.State{}, false
	}
	return st, true
}

func (s *Server) reported(c *gin.Context) (session.State, bool) {
	st, ok := s.session(c)
	if !ok {
		return st, false
	}
	if st.Report == nil {
		conflict(c, "no summaries yet")
		return st, false
	}
	return st, true
}

func exportDocument(st session.State) export.Document {
	doc := export.Document{Source: st.FileName, Pages: st.Pages, Report: st.Report}
	if st.Config != nil {
		doc.Provider = string(st.Config.Provider)
		doc.Model = st.Config.ModelName
	}
	return doc
}
