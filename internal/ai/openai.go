package ai

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/url"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/thywilljoshua/pdf-summarizer/internal/config"
)

// OpenAI talks to the OpenAI chat completions API or any compatible
// endpoint (OpenRouter, DeepSeek, local gateways).
type OpenAI struct {
	client      *openai.Client
	provider    string
	model       string
	temperature float32
	maxTokens   int
}

func NewOpenAI(cfg config.ModelConfig, httpClient *http.Client) *OpenAI {
	c := openai.DefaultConfig(cfg.APIKey.Reveal())
	if cfg.APIHost != "" {
		c.BaseURL = normalizeOpenAIBaseURL(cfg.APIHost)
	}
	if httpClient != nil {
		c.HTTPClient = httpClient
	}
	return &OpenAI{
		client:      openai.NewClientWithConfig(c),
		provider:    string(cfg.Provider),
		model:       cfg.ModelName,
		temperature: wireTemperature(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
	}
}

// wireTemperature keeps a zero temperature on the wire: go-openai drops
// zero values, which would leave the provider default of 1.
func wireTemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

// normalizeOpenAIBaseURL accepts hosts given with or without the /v1 suffix
// or a trailing /chat/completions.
func normalizeOpenAIBaseURL(host string) string {
	host = strings.TrimRight(host, "/")
	host = strings.TrimSuffix(host, "/chat/completions")
	if u, err := url.Parse(host); err == nil && u.Path == "" {
		host += "/v1"
	}
	return host
}

// reasoning models reject max_tokens and custom temperatures.
func isReasoningModel(model string) bool {
	m := strings.ToLower(model)
	if i := strings.LastIndex(m, "/"); i >= 0 {
		m = m[i+1:]
	}
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(m, p) {
			return true
		}
	}
	return false
}

func (o *OpenAI) Summarize(ctx context.Context, req Request) (string, error) {
	var msgs []openai.ChatCompletionMessage
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	body := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: msgs,
	}
	if o.provider == string(config.ProviderOpenAI) && isReasoningModel(o.model) {
		body.MaxCompletionTokens = o.maxTokens
	} else {
		body.MaxTokens = o.maxTokens
		body.Temperature = o.temperature
	}

	resp, err := o.client.CreateChatCompletion(ctx, body)
	if err != nil {
		return "", wrapError(o.provider, openAIStatus(err), err)
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: o.provider, Kind: Permanent, Err: ErrEmptyResponse}
	}
	return finish(o.provider, resp.Choices[0].Message.Content)
}

func openAIStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
