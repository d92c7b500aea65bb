// Package server exposes the summarizer as a session-based HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-summarizer/internal/ai"
	"github.com/thywilljoshua/pdf-summarizer/internal/config"
	"github.com/thywilljoshua/pdf-summarizer/internal/segment"
	"github.com/thywilljoshua/pdf-summarizer/internal/session"
	"github.com/thywilljoshua/pdf-summarizer/internal/summarize"
)

const DefaultMaxUploadBytes = 50 << 20

// SummarizerFactory builds the provider client for one summarize request.
type SummarizerFactory func(ctx context.Context, cfg config.ModelConfig) (ai.Summarizer, error)

type Options struct {
	// Pipeline holds worker, retry and chunking settings shared by all
	// sessions. Prompt and Provider are set per request.
	Pipeline       summarize.Options
	MaxUploadBytes int64
	// Keys are used when a summarize request carries no API key and names
	// no host other than the one in Hosts.
	Keys          map[config.Provider]string
	// Hosts are the operator's API hosts; empty means the provider default.
	Hosts         map[config.Provider]string
	NewSummarizer SummarizerFactory
	Segmenter     *segment.Segmenter
	Now           func() time.Time
}

type Server struct {
	opts   Options
	store  *session.Store
	log    *zap.Logger
	engine *gin.Engine
}

func New(opts Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.NewSummarizer == nil {
		opts.NewSummarizer = func(ctx context.Context, cfg config.ModelConfig) (ai.Summarizer, error) {
			return ai.New(ctx, cfg)
		}
	}
	if opts.Segmenter == nil {
		opts.Segmenter = segment.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{opts: opts, store: session.NewStore(), log: log}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(gin.Recovery())
	engine.Use(Logger(log))
	engine.Use(Metrics())
	s.engine = engine
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.store.Len()})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api/sessions")
	{
		api.POST("", s.createSession)
		api.GET("/:id", s.getSession)
		api.DELETE("/:id", s.deleteSession)
		api.POST("/:id/document", LimitBody(s.opts.MaxUploadBytes), s.uploadDocument)
		api.POST("/:id/summarize", s.summarize)
		api.GET("/:id/export", s.exportReport)
		api.GET("/:id/chapters/:ordinal/export", s.exportChapter)
	}
}
