package ai

import (
	"context"
	"errors"
	"math"
	"net/http"

	genai "google.golang.org/genai"

	"github.com/thywilljoshua/pdf-summarizer/internal/config"
)

type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

func NewGemini(ctx context.Context, cfg config.ModelConfig, httpClient *http.Client) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey.Reveal(),
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.APIHost != "" {
		cc.HTTPOptions.BaseURL = cfg.APIHost
	}
	c, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, &ProviderError{Provider: string(config.ProviderGemini), Kind: Fatal, Err: err}
	}
	return &Gemini{
		client:      c,
		model:       cfg.ModelName,
		temperature: float32(cfg.Temperature),
		maxTokens:   clampInt32(cfg.MaxTokens),
	}, nil
}

func clampInt32(n int) int32 {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(n)
}

func (g *Gemini) Summarize(ctx context.Context, req Request) (string, error) {
	gc := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: g.maxTokens,
	}
	if req.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	res, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}, gc)
	if err != nil {
		var apiErr genai.APIError
		status := 0
		if errors.As(err, &apiErr) {
			status = apiErr.Code
		}
		return "", wrapError(string(config.ProviderGemini), status, err)
	}
	return finish(string(config.ProviderGemini), res.Text())
}
