package config

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"
)

type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderCustom    Provider = "custom"
	ProviderGemini    Provider = "gemini"
)

const (
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 4000

	// MaxTokensLimit is well above any provider's output cap and fits int32.
	MaxTokensLimit = 1 << 20

	// DefaultCustomHost is offered to users of the custom provider; Resolve
	// never fills it in on its own.
	DefaultCustomHost  = "https://openrouter.ai/api/v1"
	DefaultCustomModel = "deepseek/deepseek-r1-0528:free"
)

var defaultModels = map[Provider]string{
	ProviderOpenAI:    "gpt-4o",
	ProviderAnthropic: "claude-sonnet-4-20250514",
	ProviderGemini:    "gemini-2.5-flash",
}

// Providers lists the supported providers in display order.
func Providers() []Provider {
	return []Provider{ProviderOpenAI, ProviderAnthropic, ProviderCustom, ProviderGemini}
}

// DefaultModel returns the model used when none is given, or "" for custom.
func DefaultModel(p Provider) string { return defaultModels[p] }

// Secret holds a credential. It never prints or serializes its value.
type Secret string

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "[redacted]"
}

func (s Secret) GoString() string { return `config.Secret("` + s.String() + `")` }

func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// Reveal returns the raw credential for handing to a provider client.
func (s Secret) Reveal() string { return string(s) }

// ModelConfig is a validated, immutable description of which model to call.
type ModelConfig struct {
	Provider    Provider `json:"provider"`
	ModelName   string   `json:"model"`
	Temperature float64  `json:"temperature"`
	MaxTokens   int      `json:"max_tokens"`
	APIKey      Secret   `json:"api_key"`
	APIHost     string   `json:"api_host,omitempty"`
}

// RawParams are the user-supplied, unvalidated parameters. Nil pointers mean
// "use the default".
type RawParams struct {
	APIKey      string   `json:"api_key"`
	ModelName   string   `json:"model,omitempty"`
	APIHost     string   `json:"api_host,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

// ParseProvider normalizes a provider name.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case ProviderOpenAI, ProviderAnthropic, ProviderCustom, ProviderGemini:
		return p, nil
	case "google":
		return ProviderGemini, nil
	case "openai-compatible", "openrouter", "deepseek":
		return ProviderCustom, nil
	}
	return "", invalid("provider", fmt.Sprintf("unsupported provider %q", s))
}

// Resolve validates raw parameters for a provider and fills in defaults.
// The first failing check wins: a missing key is reported before anything
// else, then the provider, the endpoint, and the numeric parameters.
func Resolve(provider string, raw RawParams) (ModelConfig, error) {
	key := strings.TrimSpace(raw.APIKey)
	if key == "" {
		return ModelConfig{}, &ConfigError{Kind: KindMissingCredential, Field: "api_key", Message: "an API key is required"}
	}
	p, err := ParseProvider(provider)
	if err != nil {
		return ModelConfig{}, err
	}

	cfg := ModelConfig{
		Provider:    p,
		ModelName:   strings.TrimSpace(raw.ModelName),
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		APIKey:      Secret(key),
		APIHost:     strings.TrimRight(strings.TrimSpace(raw.APIHost), "/"),
	}

	if p == ProviderCustom {
		if cfg.APIHost == "" {
			return ModelConfig{}, &ConfigError{Kind: KindMissingEndpoint, Field: "api_host", Message: "the custom provider needs an API host"}
		}
		if !validHost(cfg.APIHost) {
			return ModelConfig{}, &ConfigError{Kind: KindMissingEndpoint, Field: "api_host", Message: fmt.Sprintf("%q is not an http(s) URL", cfg.APIHost)}
		}
		if cfg.ModelName == "" {
			return ModelConfig{}, invalid("model", "the custom provider needs a model name")
		}
	} else {
		if cfg.APIHost != "" && !validHost(cfg.APIHost) {
			return ModelConfig{}, invalid("api_host", fmt.Sprintf("%q is not an http(s) URL", cfg.APIHost))
		}
		if cfg.ModelName == "" {
			cfg.ModelName = defaultModels[p]
		}
	}

	if raw.Temperature != nil {
		cfg.Temperature = *raw.Temperature
	}
	if math.IsNaN(cfg.Temperature) || cfg.Temperature < 0 || cfg.Temperature > 1 {
		return ModelConfig{}, invalid("temperature", fmt.Sprintf("temperature %.2f is outside [0, 1]", cfg.Temperature))
	}
	if raw.MaxTokens != nil {
		cfg.MaxTokens = *raw.MaxTokens
	}
	if cfg.MaxTokens <= 0 {
		return ModelConfig{}, invalid("max_tokens", fmt.Sprintf("max_tokens must be positive, got %d", cfg.MaxTokens))
	}
	if cfg.MaxTokens > MaxTokensLimit {
		return ModelConfig{}, invalid("max_tokens", fmt.Sprintf("max_tokens must be at most %d, got %d", MaxTokensLimit, cfg.MaxTokens))
	}
	return cfg, nil
}

func validHost(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// KeyLooksValid applies the well-known key prefixes. It is advisory only:
// proxies and new key formats legitimately fail it.
func KeyLooksValid(p Provider, key string) bool {
	switch p {
	case ProviderOpenAI:
		return strings.HasPrefix(key, "sk-") && len(key) > 20
	case ProviderAnthropic:
		return strings.HasPrefix(key, "sk-ant-") && len(key) > 30
	case ProviderGemini:
		return len(key) > 20
	}
	return key != ""
}
