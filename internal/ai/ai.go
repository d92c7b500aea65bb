package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/thywilljoshua/pdf-summarizer/internal/config"
)

// Request is a single summarization call.
type Request struct {
	System string
	Prompt string
}

// Summarizer is implemented once per provider. Implementations do not retry;
// errors are *ProviderError values carrying a Kind.
type Summarizer interface {
	Summarize(ctx context.Context, req Request) (string, error)
}

type options struct {
	httpClient *http.Client
}

type Option func(*options)

// WithHTTPClient routes provider traffic through c.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// New returns the Summarizer for cfg.Provider.
func New(ctx context.Context, cfg config.ModelConfig, opts ...Option) (Summarizer, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	switch cfg.Provider {
	case config.ProviderOpenAI, config.ProviderCustom:
		return NewOpenAI(cfg, o.httpClient), nil
	case config.ProviderAnthropic:
		return NewAnthropic(cfg, o.httpClient), nil
	case config.ProviderGemini:
		return NewGemini(ctx, cfg, o.httpClient)
	}
	return nil, &ProviderError{Provider: string(cfg.Provider), Kind: Fatal, Err: fmt.Errorf("unsupported provider %q", cfg.Provider)}
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl != -1 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

// finish normalizes a model reply; an empty reply is a permanent error.
func finish(provider, text string) (string, error) {
	text = stripCodeFences(text)
	if text == "" {
		return "", &ProviderError{Provider: provider, Kind: Permanent, Err: ErrEmptyResponse}
	}
	return text, nil
}
