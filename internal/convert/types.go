package convert

import (
	"time"

	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-summarizer/internal/ai"
	"github.com/thywilljoshua/pdf-summarizer/internal/config"
	"github.com/thywilljoshua/pdf-summarizer/internal/export"
	"github.com/thywilljoshua/pdf-summarizer/internal/segment"
	"github.com/thywilljoshua/pdf-summarizer/internal/summarize"
)

type Config struct {
	OutDir  string
	Formats []export.Format
	// Split also writes one file per chapter under OutDir/chapters.
	Split      bool
	Model      config.ModelConfig
	Summarizer ai.Summarizer
	Pipeline   summarize.Options
	Segmenter  *segment.Segmenter
	Now        func() time.Time
	Log        *zap.Logger
}

type Result struct {
	Document  string              `json:"document"`
	Pages     int                 `json:"pages"`
	Chapters  int                 `json:"chapters"`
	Succeeded int                 `json:"succeeded"`
	Failures  []summarize.Failure `json:"failures,omitempty"`
	Files     []string            `json:"files"`
	OutDir    string              `json:"out_dir"`
}
