package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-summarizer/internal/ai"
	"github.com/thywilljoshua/pdf-summarizer/internal/config"
	"github.com/thywilljoshua/pdf-summarizer/internal/convert"
	"github.com/thywilljoshua/pdf-summarizer/internal/export"
	"github.com/thywilljoshua/pdf-summarizer/internal/segment"
	"github.com/thywilljoshua/pdf-summarizer/internal/summarize"
)

func summarizeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize <pdf>",
		Short: "Write chapter summaries of a PDF to the output directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := config.Load(a.v)

			formats, err := parseFormats(s.Format)
			if err != nil {
				return err
			}
			prompt, err := s.PromptText()
			if err != nil {
				return err
			}
			seg, err := newSegmenter(a.v.GetString("pattern"))
			if err != nil {
				return err
			}

			if p, err := config.ParseProvider(s.Provider); err == nil && s.APIKey != "" && !config.KeyLooksValid(p, s.APIKey) {
				a.log.Warn("api key does not look like a key for this provider", zap.String("provider", string(p)))
			}
			mc, err := config.Resolve(s.Provider, s.Raw())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sum, err := ai.New(ctx, mc)
			if err != nil {
				return err
			}

			opts := pipelineOptions(s)
			opts.Prompt = prompt
			res, runErr := convert.Run(ctx, args[0], convert.Config{
				OutDir:     s.Out,
				Formats:    formats,
				Split:      s.Split,
				Model:      mc,
				Summarizer: sum,
				Pipeline:   opts,
				Segmenter:  seg,
				Log:        a.log,
			})
			if res.Document != "" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	f := cmd.Flags()
	modelFlags(f)
	pipelineFlags(f)
	f.String("prompt", "", "instructions used instead of the built-in chapter prompt")
	f.String("prompt-file", "", "read the chapter prompt from a file")
	f.String("pattern", "", "extra regular expression matching chapter heading lines")
	f.String("format", "markdown", "comma separated output formats (text, markdown, html) or all")
	f.StringP("out", "o", ".", "output directory")
	f.Bool("split", false, "also write one file per chapter")
	return cmd
}

func modelFlags(f *pflag.FlagSet) {
	f.StringP("provider", "p", string(config.ProviderOpenAI), "openai, anthropic, gemini or custom")
	f.String("api-key", "", "provider API key; defaults to the provider's usual environment variable")
	f.StringP("model", "m", "", "model name; defaults per provider")
	f.String("api-host", "", "base URL of an OpenAI compatible API")
	f.Float64("temperature", config.DefaultTemperature, "sampling temperature in [0, 1]")
	f.Int("max-tokens", config.DefaultMaxTokens, "maximum tokens per summary")
}

func pipelineFlags(f *pflag.FlagSet) {
	f.Int("workers", summarize.DefaultWorkers, "chapters summarized concurrently")
	f.Int("chunk-size", summarize.DefaultChunkChars, "characters per request before a chapter is split")
	f.Float64("rate-limit", 0, "maximum provider calls per second; 0 disables")
	f.Int("max-attempts", summarize.DefaultMaxAttempts, "attempts per call for transient errors")
	f.Duration("call-timeout", summarize.DefaultCallTimeout, "timeout of a single provider call")
}

func pipelineOptions(s config.Settings) summarize.Options {
	return summarize.Options{
		Workers:     s.Workers,
		ChunkChars:  s.ChunkSize,
		MaxAttempts: s.MaxAttempts,
		RateLimit:   s.RateLimit,
		CallTimeout: s.CallTimeout,
	}
}

func newSegmenter(pattern string) (*segment.Segmenter, error) {
	if pattern == "" {
		return segment.New(), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("heading pattern: %w", err)
	}
	return segment.New(segment.WithPattern(re)), nil
}

func parseFormats(s string) ([]export.Format, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return export.Formats(), nil
	}
	var out []export.Format
	seen := map[export.Format]bool{}
	for _, part := range strings.Split(s, ",") {
		f, err := export.ParseFormat(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}
