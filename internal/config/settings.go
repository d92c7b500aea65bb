package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "PDFSUM"

// Settings is everything the CLI and server read from flags, environment
// and .env files.
type Settings struct {
	Provider    string
	Model       string
	APIKey      string
	APIHost     string
	Temperature *float64
	MaxTokens   *int

	Workers     int
	ChunkSize   int
	RateLimit   float64
	MaxAttempts int
	CallTimeout time.Duration
	Prompt      string
	PromptFile  string

	Format string
	Out    string
	Split  bool

	LogLevel  string
	LogFormat string

	Addr        string
	MaxUploadMB int
}

// NewViper returns a viper instance reading PDFSUM_* variables plus the
// providers' conventional key variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("provider", string(ProviderOpenAI))
	v.SetDefault("workers", 3)
	v.SetDefault("chunk-size", 12000)
	v.SetDefault("max-attempts", 4)
	v.SetDefault("call-timeout", 2*time.Minute)
	v.SetDefault("format", "markdown")
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "console")
	v.SetDefault("addr", ":8080")
	v.SetDefault("max-upload-mb", 50)

	mustBindEnv(v, "openai-api-key", "OPENAI_API_KEY")
	mustBindEnv(v, "anthropic-api-key", "ANTHROPIC_API_KEY")
	mustBindEnv(v, "gemini-api-key", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	mustBindEnv(v, "custom-api-key", "OPENROUTER_API_KEY", "DEEPSEEK_API_KEY")
	return v
}

func mustBindEnv(v *viper.Viper, key string, envs ...string) {
	if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
		panic(err)
	}
}

// BindFlags binds every flag of fs to the viper key of the same name.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		if e := v.BindPFlag(f.Name, f); e != nil {
			err = fmt.Errorf("bind flag %s: %w", f.Name, e)
		}
	})
	return err
}

// Load reads settings out of v. Temperature and max tokens stay nil unless
// set explicitly so Resolve can apply its defaults.
func Load(v *viper.Viper) Settings {
	s := Settings{
		Provider:    v.GetString("provider"),
		Model:       v.GetString("model"),
		APIKey:      v.GetString("api-key"),
		APIHost:     v.GetString("api-host"),
		Workers:     v.GetInt("workers"),
		ChunkSize:   v.GetInt("chunk-size"),
		RateLimit:   v.GetFloat64("rate-limit"),
		MaxAttempts: v.GetInt("max-attempts"),
		CallTimeout: v.GetDuration("call-timeout"),
		Prompt:      v.GetString("prompt"),
		PromptFile:  v.GetString("prompt-file"),
		Format:      v.GetString("format"),
		Out:         v.GetString("out"),
		Split:       v.GetBool("split"),
		LogLevel:    v.GetString("log-level"),
		LogFormat:   v.GetString("log-format"),
		Addr:        v.GetString("addr"),
		MaxUploadMB: v.GetInt("max-upload-mb"),
	}
	if v.IsSet("temperature") {
		t := v.GetFloat64("temperature")
		s.Temperature = &t
	}
	if v.IsSet("max-tokens") {
		n := v.GetInt("max-tokens")
		s.MaxTokens = &n
	}
	if s.APIKey == "" {
		if p, err := ParseProvider(s.Provider); err == nil {
			s.APIKey = v.GetString(string(p) + "-api-key")
		}
	}
	return s
}

// Raw returns the model parameters for Resolve.
func (s Settings) Raw() RawParams {
	return RawParams{
		APIKey:      s.APIKey,
		ModelName:   s.Model,
		APIHost:     s.APIHost,
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
	}
}

// PromptText returns the prompt override, reading PromptFile when set.
func (s Settings) PromptText() (string, error) {
	if s.PromptFile == "" {
		return s.Prompt, nil
	}
	b, err := os.ReadFile(s.PromptFile)
	if err != nil {
		return "", fmt.Errorf("read prompt file: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
